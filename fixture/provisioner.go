package fixture

import (
	"context"
	"errors"
	"fmt"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/client/request"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/contentapp/e2e/pkg/utils"
	"github.com/contentapp/e2e/pkg/wait"
)

var log = logger.WithNamespace("fixture")

// Provisioner creates the resources of a plan.
type Provisioner struct {
	// Admin creates the users, and every resource without an owner.
	Admin *client.Client
	// NewUserClient returns a client authenticated as the given user.
	NewUserClient func(user, password string) *client.Client
	// Wait is the polling used for the expectations of the plans.
	Wait wait.Options
}

// NewProvisioner returns a provisioner acting through the clients of the
// factory.
func NewProvisioner(f *client.Factory, opts wait.Options) *Provisioner {
	return &Provisioner{Admin: f.Admin(), NewUserClient: f.For, Wait: opts}
}

// Provision creates the resources of the plan, in this order: users, sites
// and their members, nodes, shares, favorites. It then waits for the Settle
// expectations, applies the mutations, and waits for the Final ones.
//
// On error, the returned context is not nil and holds what has been created
// so far, so that it can be torn down.
func (p *Provisioner) Provision(ctx context.Context, plan *Plan) (*Context, error) {
	if p.Admin == nil {
		return nil, errors.New("fixture: the provisioner needs an admin client")
	}
	fc := newContext(p)
	if err := plan.Validate(); err != nil {
		return fc, err
	}
	steps := []struct {
		name string
		run  func(context.Context, *Context, *Plan) error
	}{
		{"users", provisionUsers},
		{"sites", provisionSites},
		{"nodes", provisionNodes},
		{"shares", provisionShares},
		{"favorites", provisionFavorites},
		{"settle", func(ctx context.Context, fc *Context, plan *Plan) error {
			return fc.expect(ctx, plan.Settle)
		}},
		{"mutations", applyMutations},
		{"final", func(ctx context.Context, fc *Context, plan *Plan) error {
			return fc.expect(ctx, plan.Final)
		}},
	}
	for _, step := range steps {
		if err := step.run(ctx, fc, plan); err != nil {
			return fc, fmt.Errorf("fixture %s: %w", step.name, err)
		}
	}
	log.Infof("fixture ready: %d users, %d sites, %d nodes", len(fc.users), len(fc.sites), len(fc.nodes))
	return fc, nil
}

func provisionUsers(ctx context.Context, fc *Context, plan *Plan) error {
	for _, spec := range plan.Users {
		id := spec.ID
		if id == "" {
			id = utils.RandomName(spec.Key)
		}
		password := spec.Password
		if password == "" {
			password = id
		}
		res, err := fc.admin.EnsurePerson(ctx, client.PersonOptions{
			ID:        id,
			FirstName: spec.FirstName,
			LastName:  spec.LastName,
			Email:     spec.Email,
			Password:  password,
		})
		if err != nil {
			return fmt.Errorf("user %s: %w", spec.Key, err)
		}
		fc.users[spec.Key] = &User{Key: spec.Key, ID: res.Value.ID, Password: password, Created: res.Created()}
		log.WithField("user", id).Debugf("user %s: %s", spec.Key, res.Outcome)
	}
	return nil
}

func provisionSites(ctx context.Context, fc *Context, plan *Plan) error {
	for _, spec := range plan.Sites {
		c, err := fc.Client(spec.Owner)
		if err != nil {
			return err
		}
		id := spec.ID
		if id == "" {
			id = utils.RandomName(spec.Key)
		}
		title := spec.Title
		if title == "" {
			title = id
		}
		res, err := c.EnsureSite(ctx, client.SiteOptions{ID: id, Title: title, Visibility: spec.Visibility})
		if err != nil {
			return fmt.Errorf("site %s: %w", spec.Key, err)
		}
		site := &Site{
			Key:     spec.Key,
			ID:      res.Value.ID,
			Title:   res.Value.Title,
			GUID:    res.Value.GUID,
			Owner:   spec.Owner,
			Created: res.Created(),
		}
		fc.sites[spec.Key] = site
		if site.DocLibID, err = c.GetDocLibID(ctx, site.ID); err != nil {
			return fmt.Errorf("site %s: %w", spec.Key, err)
		}
		for _, m := range spec.Members {
			if _, err = c.EnsureSiteMember(ctx, site.ID, fc.users[m.User].ID, m.Role); err != nil {
				return fmt.Errorf("site %s, member %s: %w", spec.Key, m.User, err)
			}
		}
	}
	return nil
}

func provisionNodes(ctx context.Context, fc *Context, plan *Plan) error {
	for _, spec := range plan.Nodes {
		spec = spec.withDefaults()
		c, err := fc.Client(spec.Owner)
		if err != nil {
			return err
		}
		name := spec.Name
		if spec.Random {
			name = utils.RandomName(name)
		}
		parentID := ""
		switch {
		case spec.Parent != "":
			parentID = fc.nodes[spec.Parent].ID
		case spec.Site != "":
			parentID = fc.sites[spec.Site].DocLibID
		}
		res, err := c.EnsureNode(ctx, client.NodeOptions{
			Name:     name,
			NodeType: spec.nodeType(),
			ParentID: parentID,
		})
		if err != nil {
			return fmt.Errorf("node %s: %w", spec.Key, err)
		}
		fc.addNode(&Node{
			Key:     spec.Key,
			ID:      res.Value.ID,
			Name:    res.Value.Name,
			Kind:    spec.Kind,
			Owner:   spec.Owner,
			Parent:  spec.Parent,
			Site:    spec.Site,
			Created: res.Created(),
		})
	}
	return nil
}

func provisionShares(ctx context.Context, fc *Context, plan *Plan) error {
	for _, spec := range plan.Shares {
		n := fc.nodes[spec.Node]
		as := spec.As
		if as == "" {
			as = n.Owner
		}
		c, err := fc.Client(as)
		if err != nil {
			return err
		}
		link, err := c.ShareFile(ctx, n.ID)
		switch {
		case err == nil:
			n.SharedLinkID = link.ID
		case request.IsConflict(err):
			log.Debugf("%s is already shared", n.Name)
		default:
			return fmt.Errorf("share %s: %w", spec.Node, err)
		}
	}
	return nil
}

func provisionFavorites(ctx context.Context, fc *Context, plan *Plan) error {
	for _, spec := range plan.Favorites {
		n := fc.nodes[spec.Node]
		as := spec.As
		if as == "" {
			as = n.Owner
		}
		c, err := fc.Client(as)
		if err != nil {
			return err
		}
		kind := client.FavoriteFile
		if n.IsFolder() {
			kind = client.FavoriteFolder
		}
		if _, err = c.AddFavorite(ctx, kind, n.ID); err != nil && !request.IsConflict(err) {
			return fmt.Errorf("favorite %s: %w", spec.Node, err)
		}
	}
	return nil
}

func applyMutations(ctx context.Context, fc *Context, plan *Plan) error {
	for _, m := range plan.Mutations {
		if err := fc.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Apply applies a mutation to a node of the fixture.
func (c *Context) Apply(ctx context.Context, m Mutation) error {
	n, ok := c.nodes[m.Node]
	if !ok {
		return fmt.Errorf("%s: unknown node %q", m.Action, m.Node)
	}
	as := m.As
	if as == "" {
		as = n.Owner
	}
	cl, err := c.Client(as)
	if err != nil {
		return err
	}
	switch m.Action {
	case ActionDelete:
		err = cl.DeleteNode(ctx, n.ID, true)
		if err == nil {
			c.markRemoved(n)
		}
	case ActionTrash:
		err = cl.DeleteNode(ctx, n.ID, false)
		if err == nil {
			n.Trashed, n.TrashedBy = true, as
		}
	case ActionUnshare:
		err = cl.UnshareFile(ctx, n.Name)
		if err == nil {
			n.SharedLinkID = ""
		}
	case ActionUnfavorite:
		err = cl.RemoveFavorite(ctx, n.ID)
	default:
		err = fmt.Errorf("unknown mutation %q", m.Action)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", m.Action, m.Node, err)
	}
	log.Debugf("%s %s", m.Action, n.Name)
	return nil
}

// markRemoved marks the node and its descendants as removed.
func (c *Context) markRemoved(n *Node) {
	n.Removed = true
	for _, child := range c.nodes {
		if child.Parent == n.Key && !child.Removed {
			c.markRemoved(child)
		}
	}
}

func (c *Context) expect(ctx context.Context, expectations []Expectation) error {
	for _, e := range expectations {
		if err := c.WaitFor(ctx, e.View, e.As, e.Count); err != nil {
			return err
		}
	}
	return nil
}

// WaitFor waits until the view reports exactly expect items for the user
// with the given key (the administrator for an empty key).
func (c *Context) WaitFor(ctx context.Context, view View, principal string, expect int) error {
	cl, err := c.Client(principal)
	if err != nil {
		return err
	}
	opts := c.wait
	who := principal
	if who == "" {
		who = "admin"
	}
	opts.Description = fmt.Sprintf("%s view of %s", view, who)
	return WaitForCount(ctx, opts, cl, view, expect)
}
