package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/contentapp/e2e/pkg/logger"
)

// Node types.
const (
	TypeContent = "cm:content"
	TypeFolder  = "cm:folder"
)

// UserInfo is a reference to a person in a node.
type UserInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ContentInfo describes the content of a file.
type ContentInfo struct {
	MimeType    string `json:"mimeType"`
	SizeInBytes int64  `json:"sizeInBytes"`
}

// PathElement is an ancestor of a node.
type PathElement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PathInfo is the path of the parent of a node, as returned with
// include=path.
type PathInfo struct {
	Name     string        `json:"name"`
	Elements []PathElement `json:"elements"`
}

// Node is a file or a folder.
type Node struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NodeType       string       `json:"nodeType"`
	IsFile         bool         `json:"isFile"`
	IsFolder       bool         `json:"isFolder"`
	ParentID       string       `json:"parentId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	ModifiedAt     time.Time    `json:"modifiedAt"`
	CreatedByUser  UserInfo     `json:"createdByUser"`
	ModifiedByUser UserInfo     `json:"modifiedByUser"`
	Content        *ContentInfo `json:"content,omitempty"`
	Path           *PathInfo    `json:"path,omitempty"`
	ArchivedAt     *time.Time   `json:"archivedAt,omitempty"`
	ArchivedByUser *UserInfo    `json:"archivedByUser,omitempty"`
}

// NodeOptions contains the options passed on node creation.
//
// RelativePath is a path of folders under the parent, created if missing.
// With Overwrite, an existing file of the same name gets its content replaced.
type NodeOptions struct {
	Name         string `json:"name"`
	NodeType     string `json:"nodeType"`
	RelativePath string `json:"relativePath,omitempty"`
	ParentID     string `json:"-"`
	Overwrite    bool   `json:"-"`
}

func nodePath(id string) string {
	if id == "" {
		id = MyNodeID
	}
	return "/nodes/" + url.PathEscape(id)
}

// CreateNode creates a node without content.
func (c *Client) CreateNode(ctx context.Context, opts NodeOptions) (*Node, error) {
	if opts.NodeType == "" {
		opts.NodeType = TypeContent
	}
	q := url.Values{}
	if opts.Overwrite {
		q.Set("overwrite", "true")
	}
	var n Node
	if err := c.jsonReq(ctx, http.MethodPost, nodePath(opts.ParentID)+"/children", q, opts, &n); err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{"node": n.ID, "name": n.Name}).Debug("node created")
	return &n, nil
}

// CreateFile creates an empty file. An empty parentID means the home folder
// of the authenticated user.
func (c *Client) CreateFile(ctx context.Context, name, parentID string) (*Node, error) {
	return c.CreateNode(ctx, NodeOptions{Name: name, NodeType: TypeContent, ParentID: parentID})
}

// CreateFolder creates a folder. An empty parentID means the home folder of
// the authenticated user.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*Node, error) {
	return c.CreateNode(ctx, NodeOptions{Name: name, NodeType: TypeFolder, ParentID: parentID})
}

// GetNode returns a node, with its path. With a relativePath, it is the node
// at this path under the node id.
func (c *Client) GetNode(ctx context.Context, id, relativePath string) (*Node, error) {
	q := url.Values{"include": {"path"}}
	if relativePath != "" {
		q.Set("relativePath", relativePath)
	}
	var n Node
	if err := c.jsonReq(ctx, http.MethodGet, nodePath(id), q, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNode deletes a node. Without permanent, it goes to the trashcan.
func (c *Client) DeleteNode(ctx context.Context, id string, permanent bool) error {
	q := url.Values{"permanent": {strconv.FormatBool(permanent)}}
	return c.jsonReq(ctx, http.MethodDelete, nodePath(id), q, nil, nil)
}

// ListChildren returns the children of a folder, not trashed.
func (c *Client) ListChildren(ctx context.Context, id string) ([]*Node, error) {
	return listAll[*Node](ctx, c, nodePath(id)+"/children", ListOptions{Include: []string{"path"}})
}
