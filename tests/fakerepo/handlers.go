package fakerepo

import (
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func pagination(c echo.Context) (skip, max int) {
	skip, _ = strconv.Atoi(c.QueryParam("skipCount"))
	max, err := strconv.Atoi(c.QueryParam("maxItems"))
	if err != nil || max <= 0 {
		max = 100
	}
	return skip, max
}

func includes(c echo.Context, field string) bool {
	for _, f := range strings.Split(c.QueryParam("include"), ",") {
		if strings.TrimSpace(f) == field {
			return true
		}
	}
	return false
}

func entry(c echo.Context, code int, v interface{}) error {
	return c.JSON(code, entryJSON{Entry: v})
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

// Tickets

func (s *Server) createTicket(c echo.Context) error {
	var body struct {
		UserID   string `json:"userId"`
		Password string `json:"password"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[body.UserID]
	if !ok || p.Password != body.Password {
		return echo.NewHTTPError(http.StatusForbidden, "Login failed")
	}
	id := "TICKET_" + strings.ReplaceAll(newID(), "-", "")
	s.tickets[id] = p.ID
	return entry(c, http.StatusCreated, map[string]string{"id": id, "userId": p.ID})
}

func (s *Server) getTicket(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	for id, u := range s.tickets {
		if u == user {
			return entry(c, http.StatusOK, map[string]string{"id": id, "userId": user})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "no ticket")
}

func (s *Server) deleteTicket(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	for id, u := range s.tickets {
		if u == user {
			delete(s.tickets, id)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// People

func (s *Server) personJSON(p *person) *personJSON {
	return &personJSON{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Enabled:   true,
	}
}

func (s *Server) personID(c echo.Context) string {
	id := c.Param("id")
	if id == "-me-" {
		return currentUser(c)
	}
	return id
}

func (s *Server) createPerson(c echo.Context) error {
	var body struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	if body.ID == "" || body.FirstName == "" || body.Email == "" || body.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id, firstName, email and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isAdmin(currentUser(c)) {
		return echo.NewHTTPError(http.StatusForbidden, "only an administrator can create people")
	}
	if _, ok := s.people[body.ID]; ok {
		return echo.NewHTTPError(http.StatusConflict, "Person already exists: "+body.ID)
	}
	p := &person{
		ID:        body.ID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Password:  body.Password,
	}
	s.addPerson(p)
	return entry(c, http.StatusCreated, s.personJSON(p))
}

func (s *Server) getPerson(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[s.personID(c)]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "person not found")
	}
	return entry(c, http.StatusOK, s.personJSON(p))
}

func (s *Server) deletePerson(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isAdmin(currentUser(c)) {
		return echo.NewHTTPError(http.StatusForbidden, "only an administrator can delete people")
	}
	id := c.Param("id")
	p, ok := s.people[id]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "person not found")
	}
	if home, ok := s.nodes[p.HomeID]; ok {
		s.purge(home)
	}
	for t, u := range s.tickets {
		if u == id {
			delete(s.tickets, t)
		}
	}
	for _, site := range s.sites {
		delete(site.Members, id)
	}
	delete(s.favorites, id)
	delete(s.people, id)
	return c.NoContent(http.StatusNoContent)
}

// Sites

func (s *Server) siteJSON(st *site, user string) *siteJSON {
	return &siteJSON{
		ID:         st.ID,
		GUID:       st.GUID,
		Title:      st.Title,
		Visibility: st.Visibility,
		Role:       st.Members[user],
	}
}

func (s *Server) createSite(c echo.Context) error {
	var body struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Visibility string `json:"visibility"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	if body.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	if body.Title == "" {
		body.Title = body.ID
	}
	if body.Visibility == "" {
		body.Visibility = "PUBLIC"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[body.ID]; ok {
		return echo.NewHTTPError(http.StatusConflict, "Site already exists: "+body.ID)
	}
	user := currentUser(c)
	folder := s.newNode(body.ID, TypeFolder, SitesID, user)
	docLib := s.newNode("documentLibrary", TypeFolder, folder.ID, user)
	st := &site{
		ID:         body.ID,
		GUID:       folder.ID,
		Title:      body.Title,
		Visibility: body.Visibility,
		DocLibID:   docLib.ID,
		Members:    map[string]string{user: "SiteManager"},
	}
	s.sites[st.ID] = st
	// The creator of a site gets it as a favorite.
	s.addFavoriteLocked(user, folder.ID, "site")
	return entry(c, http.StatusCreated, s.siteJSON(st, user))
}

func (s *Server) getSite(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sites[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "site not found")
	}
	return entry(c, http.StatusOK, s.siteJSON(st, currentUser(c)))
}

func (s *Server) listSites(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	var entries []interface{}
	ids := make([]string, 0, len(s.sites))
	for id := range s.sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := s.sites[id]
		if st.Visibility == "PRIVATE" && st.Members[user] == "" && !s.isAdmin(user) {
			continue
		}
		entries = append(entries, s.siteJSON(st, user))
	}
	skip, max := pagination(c)
	return c.JSON(http.StatusOK, newList(entries, skip, max))
}

func (s *Server) deleteSite(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sites[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "site not found")
	}
	if folder, ok := s.nodes[st.GUID]; ok {
		if c.QueryParam("permanent") == "true" {
			s.purge(folder)
		} else {
			folder.ArchivedAt = s.opts.Now()
			folder.ArchivedBy = currentUser(c)
		}
	}
	delete(s.sites, st.ID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) addSiteMember(c echo.Context) error {
	var body struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sites[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "site not found")
	}
	if _, ok := s.people[body.ID]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "person not found")
	}
	if _, ok := st.Members[body.ID]; ok {
		return echo.NewHTTPError(http.StatusConflict, body.ID+" is already a member of "+st.ID)
	}
	if body.Role == "" {
		body.Role = "SiteConsumer"
	}
	st.Members[body.ID] = body.Role
	return entry(c, http.StatusCreated, map[string]string{"id": body.ID, "role": body.Role})
}

func (s *Server) getSiteContainer(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sites[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "site not found")
	}
	if c.Param("container") != "documentLibrary" {
		return echo.NewHTTPError(http.StatusNotFound, "container not found")
	}
	return entry(c, http.StatusOK, map[string]string{"id": st.DocLibID, "folderId": "documentLibrary"})
}

// Nodes

type createNodeBody struct {
	Name         string `json:"name"`
	NodeType     string `json:"nodeType"`
	RelativePath string `json:"relativePath"`
}

func (s *Server) createNode(c echo.Context) error {
	var body createNodeBody
	var content []byte
	isMultipart := strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
	if isMultipart {
		fh, err := c.FormFile("filedata")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "filedata is required")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		content, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		body.Name = c.FormValue("name")
		if body.Name == "" {
			body.Name = fh.Filename
		}
		body.NodeType = c.FormValue("nodeType")
		body.RelativePath = c.FormValue("relativePath")
	} else if err := bind(c, &body); err != nil {
		return err
	}
	if body.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if body.NodeType == "" {
		body.NodeType = TypeContent
	}
	flag := func(name string) bool {
		if c.QueryParam(name) == "true" {
			return true
		}
		return isMultipart && c.FormValue(name) == "true"
	}
	autoRename, overwrite := flag("autoRename"), flag("overwrite")

	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	parent, err := s.resolveNode(c.Param("id"), user)
	if err != nil {
		return err
	}
	if s.inTrash(parent) {
		return echo.NewHTTPError(http.StatusNotFound, "parent is in the trashcan")
	}
	parent, err = s.resolvePath(parent, body.RelativePath, user, true)
	if err != nil {
		return err
	}

	name := body.Name
	if existing := s.childByName(parent.ID, name); existing != nil {
		switch {
		case overwrite && !existing.isFolder() && body.NodeType == TypeContent:
			existing.Content = content
			existing.ModifiedBy = user
			existing.ModifiedAt = s.opts.Now()
			return entry(c, http.StatusCreated, s.toJSON(existing, includes(c, "path")))
		case autoRename:
			name = s.freeName(parent.ID, name)
		default:
			return echo.NewHTTPError(http.StatusConflict,
				"Duplicate child name not allowed: "+name)
		}
	}
	n := s.newNode(name, body.NodeType, parent.ID, user)
	n.Content = content
	return entry(c, http.StatusCreated, s.toJSON(n, includes(c, "path")))
}

// freeName returns "name-<n>.ext" with the first n not already taken.
func (s *Server) freeName(parentID, name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i) + ext
		if s.childByName(parentID, candidate) == nil {
			return candidate
		}
	}
}

func (s *Server) getNode(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	n, err := s.resolveNode(c.Param("id"), user)
	if err != nil {
		return err
	}
	if rel := c.QueryParam("relativePath"); rel != "" {
		n, err = s.resolveRelative(n, rel)
		if err != nil {
			return err
		}
	}
	if s.inTrash(n) {
		return echo.NewHTTPError(http.StatusNotFound, "The entity with id: "+n.ID+" was not found")
	}
	return entry(c, http.StatusOK, s.toJSON(n, includes(c, "path")))
}

// resolveRelative walks to an existing node, file or folder.
func (s *Server) resolveRelative(n *node, rel string) (*node, error) {
	for _, part := range strings.Split(rel, "/") {
		if part == "" {
			continue
		}
		child := s.childByName(n.ID, part)
		if child == nil {
			return nil, echo.NewHTTPError(http.StatusNotFound, "relative path not found: "+rel)
		}
		n = child
	}
	return n, nil
}

func (s *Server) listChildren(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.resolveNode(c.Param("id"), currentUser(c))
	if err != nil {
		return err
	}
	if s.inTrash(n) {
		return echo.NewHTTPError(http.StatusNotFound, "The entity with id: "+n.ID+" was not found")
	}
	withPath := includes(c, "path")
	var entries []interface{}
	for _, child := range s.children(n.ID) {
		if child.ArchivedAt.IsZero() {
			entries = append(entries, s.toJSON(child, withPath))
		}
	}
	skip, max := pagination(c)
	return c.JSON(http.StatusOK, newList(entries, skip, max))
}

func (s *Server) deleteNode(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	n, err := s.resolveNode(c.Param("id"), user)
	if err != nil {
		return err
	}
	if s.inTrash(n) {
		return echo.NewHTTPError(http.StatusNotFound, "The entity with id: "+n.ID+" was not found")
	}
	switch n.ID {
	case CompanyHomeID, UserHomesID, SitesID:
		return echo.NewHTTPError(http.StatusForbidden, "cannot delete a root folder")
	}
	if c.QueryParam("permanent") == "true" {
		s.purge(n)
	} else {
		n.ArchivedAt = s.opts.Now()
		n.ArchivedBy = user
	}
	return c.NoContent(http.StatusNoContent)
}

// Shared links

func (s *Server) sharedLinkJSON(l *sharedLink, n *node, withPath bool) *sharedLinkJSON {
	j := &sharedLinkJSON{
		ID:           l.ID,
		NodeID:       n.ID,
		Name:         n.Name,
		ModifiedAt:   n.ModifiedAt,
		SharedByUser: s.userRef(l.SharedBy),
	}
	if withPath {
		j.Path = s.nodePath(n)
	}
	return j
}

func (s *Server) createSharedLink(c echo.Context) error {
	var body struct {
		NodeID string `json:"nodeId"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[body.NodeID]
	if !ok || s.inTrash(n) {
		return echo.NewHTTPError(http.StatusNotFound, "The entity with id: "+body.NodeID+" was not found")
	}
	if n.isFolder() {
		return echo.NewHTTPError(http.StatusBadRequest, "only files can be shared")
	}
	for _, l := range s.shared {
		if l.NodeID == n.ID {
			return echo.NewHTTPError(http.StatusConflict, "Node is already shared: "+n.Name)
		}
	}
	now := s.opts.Now()
	l := &sharedLink{
		ID:        strings.ReplaceAll(newID(), "-", ""),
		NodeID:    n.ID,
		SharedBy:  currentUser(c),
		CreatedAt: now,
		VisibleAt: now.Add(s.opts.IndexDelay),
	}
	s.shared[l.ID] = l
	return entry(c, http.StatusCreated, s.sharedLinkJSON(l, n, includes(c, "path")))
}

func (s *Server) listSharedLinks(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	withPath := includes(c, "path")
	var links []*sharedLink
	for _, l := range s.shared {
		n, ok := s.nodes[l.NodeID]
		if !ok || s.inTrash(n) || !s.visible(l.VisibleAt) {
			continue
		}
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		ni, nj := s.nodes[links[i].NodeID], s.nodes[links[j].NodeID]
		if !ni.ModifiedAt.Equal(nj.ModifiedAt) {
			return ni.ModifiedAt.After(nj.ModifiedAt)
		}
		return ni.Name < nj.Name
	})
	entries := make([]interface{}, 0, len(links))
	for _, l := range links {
		entries = append(entries, s.sharedLinkJSON(l, s.nodes[l.NodeID], withPath))
	}
	skip, max := pagination(c)
	return c.JSON(http.StatusOK, newList(entries, skip, max))
}

func (s *Server) deleteSharedLink(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if _, ok := s.shared[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "shared link not found")
	}
	delete(s.shared, id)
	return c.NoContent(http.StatusNoContent)
}

// Favorites

func (s *Server) addFavorite(c echo.Context) error {
	var body struct {
		Target map[string]struct {
			GUID string `json:"guid"`
		} `json:"target"`
	}
	if err := bind(c, &body); err != nil {
		return err
	}
	if len(body.Target) != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "exactly one target is required")
	}
	var kind, guid string
	for k, t := range body.Target {
		kind, guid = k, t.GUID
	}
	if kind != "file" && kind != "folder" && kind != "site" {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown target kind: "+kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.personID(c)
	if _, ok := s.people[user]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "person not found")
	}
	n, ok := s.nodes[guid]
	if !ok || s.inTrash(n) {
		return echo.NewHTTPError(http.StatusNotFound, "The entity with id: "+guid+" was not found")
	}
	if (kind == "file") == n.isFolder() && kind != "site" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is not a "+kind)
	}
	if _, ok := s.favorites[user][guid]; ok {
		return echo.NewHTTPError(http.StatusConflict, "already a favorite: "+guid)
	}
	f := s.addFavoriteLocked(user, guid, kind)
	return entry(c, http.StatusCreated, s.favoriteJSON(f, n, false))
}

// addFavoriteLocked must be called with the lock held.
func (s *Server) addFavoriteLocked(user, guid, kind string) *favorite {
	favs := s.favorites[user]
	if favs == nil {
		favs = make(map[string]*favorite)
		s.favorites[user] = favs
	}
	now := s.opts.Now()
	f := &favorite{
		TargetID:  guid,
		Kind:      kind,
		CreatedAt: now,
		VisibleAt: now.Add(s.opts.IndexDelay),
	}
	favs[guid] = f
	return f
}

func (s *Server) favoriteJSON(f *favorite, n *node, withPath bool) *favoriteJSON {
	return &favoriteJSON{
		TargetGUID: f.TargetID,
		CreatedAt:  f.CreatedAt,
		Target:     map[string]*nodeJSON{f.Kind: s.toJSON(n, withPath)},
	}
}

func (s *Server) listFavorites(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.personID(c)
	withPath := includes(c, "path")
	var favs []*favorite
	for _, f := range s.favorites[user] {
		n, ok := s.nodes[f.TargetID]
		if !ok || s.inTrash(n) || !s.visible(f.VisibleAt) {
			continue
		}
		favs = append(favs, f)
	}
	sort.Slice(favs, func(i, j int) bool {
		if !favs[i].CreatedAt.Equal(favs[j].CreatedAt) {
			return favs[i].CreatedAt.After(favs[j].CreatedAt)
		}
		return favs[i].TargetID < favs[j].TargetID
	})
	entries := make([]interface{}, 0, len(favs))
	for _, f := range favs {
		entries = append(entries, s.favoriteJSON(f, s.nodes[f.TargetID], withPath))
	}
	skip, max := pagination(c)
	return c.JSON(http.StatusOK, newList(entries, skip, max))
}

func (s *Server) removeFavorite(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.personID(c)
	target := c.Param("target")
	if _, ok := s.favorites[user][target]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "favorite not found")
	}
	delete(s.favorites[user], target)
	return c.NoContent(http.StatusNoContent)
}

// Trashcan

func (s *Server) listDeletedNodes(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := currentUser(c)
	var deleted []*node
	for _, n := range s.nodes {
		if n.ArchivedAt.IsZero() {
			continue
		}
		if n.ArchivedBy != user && !s.isAdmin(user) {
			continue
		}
		deleted = append(deleted, n)
	}
	sort.Slice(deleted, func(i, j int) bool {
		if !deleted[i].ArchivedAt.Equal(deleted[j].ArchivedAt) {
			return deleted[i].ArchivedAt.After(deleted[j].ArchivedAt)
		}
		return deleted[i].Name < deleted[j].Name
	})
	entries := make([]interface{}, 0, len(deleted))
	for _, n := range deleted {
		entries = append(entries, s.toJSON(n, includes(c, "path")))
	}
	skip, max := pagination(c)
	return c.JSON(http.StatusOK, newList(entries, skip, max))
}

func (s *Server) purgeDeletedNode(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[c.Param("id")]
	if !ok || n.ArchivedAt.IsZero() {
		return echo.NewHTTPError(http.StatusNotFound, "deleted node not found")
	}
	s.purge(n)
	return c.NoContent(http.StatusNoContent)
}
