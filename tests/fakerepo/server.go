// Package fakerepo is an in-memory implementation of the subset of the
// content repository REST API used by the harness. It lets the client, the
// fixture provisioner and the collector be tested without a live repository.
//
// The list endpoints for shared links and favorites can be configured to lag
// behind the writes (Options.IndexDelay), like the search index of the real
// repository does.
package fakerepo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
)

// API paths served by the fake repository.
const (
	APIPath     = "/alfresco/api/-default-/public/alfresco/versions/1"
	TicketsPath = "/alfresco/api/-default-/public/authentication/versions/1/tickets"
)

// Well-known node ids.
const (
	CompanyHomeID = "company-home"
	UserHomesID   = "user-homes"
	SitesID       = "sites"
)

const userKey = "user"

// Options configures the fake repository.
type Options struct {
	AdminUser     string
	AdminPassword string
	// IndexDelay is the time for a new shared link or favorite to show in
	// the list endpoints.
	IndexDelay time.Duration
	Now        func() time.Time
}

// Server is the fake repository.
type Server struct {
	opts Options
	e    *echo.Echo

	mu        sync.Mutex
	people    map[string]*person
	tickets   map[string]string
	sites     map[string]*site
	nodes     map[string]*node
	shared    map[string]*sharedLink
	favorites map[string]map[string]*favorite
}

// New returns a fake repository with an admin account and the root folders.
func New(opts Options) *Server {
	if opts.AdminUser == "" {
		opts.AdminUser = "admin"
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "admin"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:      opts,
		people:    make(map[string]*person),
		tickets:   make(map[string]string),
		sites:     make(map[string]*site),
		nodes:     make(map[string]*node),
		shared:    make(map[string]*sharedLink),
		favorites: make(map[string]map[string]*favorite),
	}
	now := opts.Now()
	for _, n := range []*node{
		{ID: CompanyHomeID, Name: "Company Home", NodeType: TypeFolder},
		{ID: UserHomesID, Name: "User Homes", NodeType: TypeFolder, ParentID: CompanyHomeID},
		{ID: SitesID, Name: "Sites", NodeType: TypeFolder, ParentID: CompanyHomeID},
	} {
		n.CreatedBy, n.ModifiedBy = "System", "System"
		n.CreatedAt, n.ModifiedAt = now, now
		s.nodes[n.ID] = n
	}
	s.addPerson(&person{ID: opts.AdminUser, FirstName: "Administrator", Password: opts.AdminPassword})
	s.e = s.routes()
	return s
}

// Start serves the fake repository on a local port until the end of the test.
func Start(t testing.TB, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	tickets := e.Group(TicketsPath)
	tickets.POST("", s.createTicket)
	tickets.GET("/-me-", s.getTicket, s.authenticated)
	tickets.DELETE("/-me-", s.deleteTicket, s.authenticated)

	api := e.Group(APIPath, s.authenticated)
	api.POST("/people", s.createPerson)
	api.GET("/people/:id", s.getPerson)
	api.DELETE("/people/:id", s.deletePerson)
	api.POST("/people/:id/favorites", s.addFavorite)
	api.GET("/people/:id/favorites", s.listFavorites)
	api.DELETE("/people/:id/favorites/:target", s.removeFavorite)

	api.POST("/sites", s.createSite)
	api.GET("/sites", s.listSites)
	api.GET("/sites/:id", s.getSite)
	api.DELETE("/sites/:id", s.deleteSite)
	api.POST("/sites/:id/members", s.addSiteMember)
	api.GET("/sites/:id/containers/:container", s.getSiteContainer)

	api.POST("/nodes/:id/children", s.createNode)
	api.GET("/nodes/:id/children", s.listChildren)
	api.GET("/nodes/:id", s.getNode)
	api.DELETE("/nodes/:id", s.deleteNode)

	api.POST("/shared-links", s.createSharedLink)
	api.GET("/shared-links", s.listSharedLinks)
	api.DELETE("/shared-links/:id", s.deleteSharedLink)

	api.GET("/deleted-nodes", s.listDeletedNodes)
	api.DELETE("/deleted-nodes/:id", s.purgeDeletedNode)
	return e
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if c.Response().Committed {
		return
	}
	_ = c.JSON(code, map[string]interface{}{
		"error": map[string]interface{}{
			"errorKey":     http.StatusText(code),
			"statusCode":   code,
			"briefSummary": msg,
		},
	})
}

// authenticated accepts either a user:password basic auth, or a ticket as
// the basic auth payload.
func (s *Server) authenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Basic ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization")
		}
		user, ok := s.checkCredentials(string(raw))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func (s *Server) checkCredentials(raw string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	login, password, hasPassword := strings.Cut(raw, ":")
	if !hasPassword {
		user, ok := s.tickets[login]
		return user, ok
	}
	if login == "ROLE_TICKET" {
		user, ok := s.tickets[password]
		return user, ok
	}
	p, ok := s.people[login]
	if !ok || p.Password != password {
		return "", false
	}
	return p.ID, true
}

func currentUser(c echo.Context) string {
	user, _ := c.Get(userKey).(string)
	return user
}

func (s *Server) isAdmin(user string) bool {
	return user == s.opts.AdminUser
}

func newID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func (s *Server) addPerson(p *person) {
	now := s.opts.Now()
	home := &node{
		ID:         newID(),
		Name:       p.ID,
		NodeType:   TypeFolder,
		ParentID:   UserHomesID,
		CreatedBy:  s.opts.AdminUser,
		ModifiedBy: s.opts.AdminUser,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.nodes[home.ID] = home
	p.HomeID = home.ID
	s.people[p.ID] = p
}

// resolveNode understands the -my- and -root- aliases. It must be called with
// the lock held.
func (s *Server) resolveNode(id, user string) (*node, error) {
	switch id {
	case "-my-":
		p, ok := s.people[user]
		if !ok {
			return nil, echo.NewHTTPError(http.StatusNotFound, "no home folder for "+user)
		}
		id = p.HomeID
	case "-root-":
		id = CompanyHomeID
	}
	n, ok := s.nodes[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "The entity with id: "+id+" was not found")
	}
	return n, nil
}

// resolvePath walks the relative path from n. With create, the missing
// folders are created on the way. It must be called with the lock held.
func (s *Server) resolvePath(n *node, relativePath, user string, create bool) (*node, error) {
	for _, part := range strings.Split(relativePath, "/") {
		if part == "" {
			continue
		}
		child := s.childByName(n.ID, part)
		if child == nil {
			if !create {
				return nil, echo.NewHTTPError(http.StatusNotFound, "relative path not found: "+relativePath)
			}
			child = s.newNode(part, TypeFolder, n.ID, user)
		}
		if !child.isFolder() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, part+" is not a folder")
		}
		n = child
	}
	return n, nil
}

func (s *Server) newNode(name, nodeType, parentID, user string) *node {
	now := s.opts.Now()
	n := &node{
		ID:         newID(),
		Name:       name,
		NodeType:   nodeType,
		ParentID:   parentID,
		CreatedBy:  user,
		ModifiedBy: user,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if nodeType == TypeContent {
		n.MimeType = "text/plain"
	}
	s.nodes[n.ID] = n
	return n
}

func (s *Server) visible(at time.Time) bool {
	return !at.After(s.opts.Now())
}

// SharedCount returns the number of shared links, indexed or not.
func (s *Server) SharedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shared)
}

// FavoritesCount returns the number of favorites of a user, indexed or not.
func (s *Server) FavoritesCount(user string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.favorites[user])
}

// HasPerson tells if the person exists.
func (s *Server) HasPerson(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.people[id]
	return ok
}

// HasSite tells if the site exists.
func (s *Server) HasSite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sites[id]
	return ok
}

// HasNode tells if the node exists, in the trashcan or not.
func (s *Server) HasNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[id]
	return ok
}

// InTrash tells if the node is in the trashcan.
func (s *Server) InTrash(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return ok && s.inTrash(n)
}

// Content returns the content of a file node.
func (s *Server) Content(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Content, true
}

// FindByPath returns the id of the node at the given path relative to the
// home folder of user.
func (s *Server) FindByPath(user, relativePath string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	home, err := s.resolveNode("-my-", user)
	if err != nil {
		return "", false
	}
	parent := home
	parts := strings.Split(strings.Trim(relativePath, "/"), "/")
	for _, part := range parts {
		parent = s.childByName(parent.ID, part)
		if parent == nil {
			return "", false
		}
	}
	return parent.ID, true
}
