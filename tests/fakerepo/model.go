package fakerepo

import (
	"path"
	"sort"
	"strings"
	"time"
)

// Node types, as the repository names them.
const (
	TypeContent = "cm:content"
	TypeFolder  = "cm:folder"
)

type userRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type person struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Password  string
	HomeID    string
}

type site struct {
	ID         string
	GUID       string
	Title      string
	Visibility string
	DocLibID   string
	Members    map[string]string
}

type node struct {
	ID         string
	Name       string
	NodeType   string
	ParentID   string
	CreatedBy  string
	CreatedAt  time.Time
	ModifiedBy string
	ModifiedAt time.Time
	Content    []byte
	MimeType   string

	// Set when the node has been moved to the trashcan.
	ArchivedAt time.Time
	ArchivedBy string
}

func (n *node) isFolder() bool { return n.NodeType == TypeFolder }

type sharedLink struct {
	ID        string
	NodeID    string
	SharedBy  string
	CreatedAt time.Time
	VisibleAt time.Time
}

type favorite struct {
	TargetID  string
	Kind      string
	CreatedAt time.Time
	VisibleAt time.Time
}

// nodeJSON is the representation of a node in the API responses.
type nodeJSON struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NodeType       string       `json:"nodeType"`
	IsFile         bool         `json:"isFile"`
	IsFolder       bool         `json:"isFolder"`
	ParentID       string       `json:"parentId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	ModifiedAt     time.Time    `json:"modifiedAt"`
	CreatedByUser  userRef      `json:"createdByUser"`
	ModifiedByUser userRef      `json:"modifiedByUser"`
	Content        *contentJSON `json:"content,omitempty"`
	Path           *pathJSON    `json:"path,omitempty"`
	ArchivedAt     *time.Time   `json:"archivedAt,omitempty"`
	ArchivedByUser *userRef     `json:"archivedByUser,omitempty"`
}

type contentJSON struct {
	MimeType    string `json:"mimeType"`
	SizeInBytes int64  `json:"sizeInBytes"`
}

type pathJSON struct {
	Name     string            `json:"name"`
	Elements []pathElementJSON `json:"elements"`
}

type pathElementJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type siteJSON struct {
	ID         string `json:"id"`
	GUID       string `json:"guid"`
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	Role       string `json:"role,omitempty"`
}

type personJSON struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Enabled   bool   `json:"enabled"`
}

type sharedLinkJSON struct {
	ID           string    `json:"id"`
	NodeID       string    `json:"nodeId"`
	Name         string    `json:"name"`
	ModifiedAt   time.Time `json:"modifiedAt"`
	SharedByUser userRef   `json:"sharedByUser"`
	Path         *pathJSON `json:"path,omitempty"`
}

type favoriteJSON struct {
	TargetGUID string               `json:"targetGuid"`
	CreatedAt  time.Time            `json:"createdAt"`
	Target     map[string]*nodeJSON `json:"target"`
}

type listJSON struct {
	List struct {
		Pagination paginationJSON `json:"pagination"`
		Entries    []entryJSON    `json:"entries"`
	} `json:"list"`
}

type paginationJSON struct {
	Count        int  `json:"count"`
	HasMoreItems bool `json:"hasMoreItems"`
	TotalItems   int  `json:"totalItems"`
	SkipCount    int  `json:"skipCount"`
	MaxItems     int  `json:"maxItems"`
}

type entryJSON struct {
	Entry interface{} `json:"entry"`
}

func newList(entries []interface{}, skip, max int) *listJSON {
	total := len(entries)
	if skip > total {
		skip = total
	}
	end := total
	if max > 0 && skip+max < total {
		end = skip + max
	}
	l := &listJSON{}
	l.List.Pagination = paginationJSON{
		Count:        end - skip,
		HasMoreItems: end < total,
		TotalItems:   total,
		SkipCount:    skip,
		MaxItems:     max,
	}
	l.List.Entries = make([]entryJSON, 0, end-skip)
	for _, e := range entries[skip:end] {
		l.List.Entries = append(l.List.Entries, entryJSON{Entry: e})
	}
	return l
}

// ancestors returns the chain of nodes from the root to n, n excluded.
func (s *Server) ancestors(n *node) []*node {
	var chain []*node
	for p := s.nodes[n.ParentID]; p != nil; p = s.nodes[p.ParentID] {
		chain = append([]*node{p}, chain...)
	}
	return chain
}

// inTrash returns true if n or one of its ancestors has been trashed.
func (s *Server) inTrash(n *node) bool {
	if !n.ArchivedAt.IsZero() {
		return true
	}
	for _, a := range s.ancestors(n) {
		if !a.ArchivedAt.IsZero() {
			return true
		}
	}
	return false
}

func (s *Server) nodePath(n *node) *pathJSON {
	chain := s.ancestors(n)
	names := make([]string, 0, len(chain))
	elements := make([]pathElementJSON, 0, len(chain))
	for _, a := range chain {
		names = append(names, a.Name)
		elements = append(elements, pathElementJSON{ID: a.ID, Name: a.Name})
	}
	return &pathJSON{Name: "/" + path.Join(names...), Elements: elements}
}

func (s *Server) toJSON(n *node, withPath bool) *nodeJSON {
	j := &nodeJSON{
		ID:             n.ID,
		Name:           n.Name,
		NodeType:       n.NodeType,
		IsFile:         !n.isFolder(),
		IsFolder:       n.isFolder(),
		ParentID:       n.ParentID,
		CreatedAt:      n.CreatedAt,
		ModifiedAt:     n.ModifiedAt,
		CreatedByUser:  s.userRef(n.CreatedBy),
		ModifiedByUser: s.userRef(n.ModifiedBy),
	}
	if !n.isFolder() {
		j.Content = &contentJSON{MimeType: n.MimeType, SizeInBytes: int64(len(n.Content))}
	}
	if withPath {
		j.Path = s.nodePath(n)
	}
	if !n.ArchivedAt.IsZero() {
		at := n.ArchivedAt
		ref := s.userRef(n.ArchivedBy)
		j.ArchivedAt = &at
		j.ArchivedByUser = &ref
	}
	return j
}

func (s *Server) userRef(id string) userRef {
	name := id
	if p, ok := s.people[id]; ok && p.FirstName != "" {
		name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	return userRef{ID: id, DisplayName: name}
}

func (s *Server) children(parentID string) []*node {
	var list []*node
	for _, n := range s.nodes {
		if n.ParentID == parentID {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func (s *Server) childByName(parentID, name string) *node {
	for _, n := range s.children(parentID) {
		if n.Name == name && n.ArchivedAt.IsZero() {
			return n
		}
	}
	return nil
}

// purge removes n and its descendants, with their shared links and
// favorites.
func (s *Server) purge(n *node) {
	for _, c := range s.children(n.ID) {
		s.purge(c)
	}
	s.dropRelations(n.ID)
	delete(s.nodes, n.ID)
}

func (s *Server) dropRelations(nodeID string) {
	for id, l := range s.shared {
		if l.NodeID == nodeID {
			delete(s.shared, id)
		}
	}
	for _, favs := range s.favorites {
		delete(favs, nodeID)
	}
}
