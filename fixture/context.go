package fixture

import (
	"fmt"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/pkg/wait"
)

// User is a user of the fixture.
type User struct {
	Key      string `json:"key"`
	ID       string `json:"id"`
	Password string `json:"password"`
	Created  bool   `json:"created"`
	Removed  bool   `json:"removed,omitempty"`
}

// Site is a site of the fixture.
type Site struct {
	Key      string `json:"key"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	GUID     string `json:"guid"`
	DocLibID string `json:"docLibId"`
	Owner    string `json:"owner,omitempty"`
	Created  bool   `json:"created"`
	Removed  bool   `json:"removed,omitempty"`
}

// Node is a file or a folder of the fixture.
type Node struct {
	Key    string `json:"key"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Owner  string `json:"owner,omitempty"`
	Parent string `json:"parent,omitempty"`
	Site   string `json:"site,omitempty"`

	Created      bool   `json:"created"`
	SharedLinkID string `json:"sharedLinkId,omitempty"`
	// Trashed is set when the node has been moved to the trashcan, by the
	// user TrashedBy.
	Trashed   bool   `json:"trashed,omitempty"`
	TrashedBy string `json:"trashedBy,omitempty"`
	// Removed is set when the node does not exist anymore.
	Removed bool `json:"removed,omitempty"`
}

// IsFolder returns true for a folder.
func (n *Node) IsFolder() bool { return n.Kind == KindFolder }

// Context is the fixture once provisioned: it gives the scenarios the
// identifiers of the remote resources, and the clients to act as each user.
type Context struct {
	users map[string]*User
	sites map[string]*Site
	nodes map[string]*Node
	// order is the creation order of the nodes.
	order []string

	admin     *client.Client
	newClient func(user, password string) *client.Client
	clients   map[string]*client.Client
	wait      wait.Options
}

func newContext(p *Provisioner) *Context {
	return &Context{
		users:     make(map[string]*User),
		sites:     make(map[string]*Site),
		nodes:     make(map[string]*Node),
		admin:     p.Admin,
		newClient: p.NewUserClient,
		clients:   make(map[string]*client.Client),
		wait:      p.Wait,
	}
}

// User returns the user with the given key, or nil.
func (c *Context) User(key string) *User { return c.users[key] }

// Site returns the site with the given key, or nil.
func (c *Context) Site(key string) *Site { return c.sites[key] }

// Node returns the node with the given key, or nil.
func (c *Context) Node(key string) *Node { return c.nodes[key] }

// NodeName returns the name of the node with the given key, or an empty
// string.
func (c *Context) NodeName(key string) string {
	if n := c.nodes[key]; n != nil {
		return n.Name
	}
	return ""
}

// Nodes returns the nodes in creation order.
func (c *Context) Nodes() []*Node {
	nodes := make([]*Node, 0, len(c.order))
	for _, key := range c.order {
		nodes = append(nodes, c.nodes[key])
	}
	return nodes
}

// Admin returns the client of the administrator.
func (c *Context) Admin() *client.Client { return c.admin }

// Client returns the client acting as the user with the given key. The empty
// key is the administrator.
func (c *Context) Client(userKey string) (*client.Client, error) {
	if userKey == "" {
		return c.admin, nil
	}
	if cl, ok := c.clients[userKey]; ok {
		return cl, nil
	}
	u, ok := c.users[userKey]
	if !ok {
		return nil, fmt.Errorf("unknown user %q", userKey)
	}
	if c.newClient == nil {
		return nil, fmt.Errorf("no client factory to act as %q", userKey)
	}
	cl := c.newClient(u.ID, u.Password)
	c.clients[userKey] = cl
	return cl, nil
}

func (c *Context) addNode(n *Node) {
	c.nodes[n.Key] = n
	c.order = append(c.order, n.Key)
}
