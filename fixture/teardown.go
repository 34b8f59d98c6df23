package fixture

import (
	"context"
	"fmt"

	"github.com/contentapp/e2e/client/request"
	"github.com/hashicorp/go-multierror"
)

// TeardownOptions configures Teardown.
type TeardownOptions struct {
	// ContinueOnError runs every step even when one fails, and returns all
	// the errors. By default, the first error stops the teardown.
	ContinueOnError bool
}

// Teardown deletes what the fixture has created: the nodes in reverse
// creation order, so contents go before their folders, then the sites, the
// content of the trashcans of the users who trashed nodes, and the users.
// The resources that existed before the fixture are kept.
//
// Resources already gone are skipped, so Teardown can be called again after a
// failure.
func (c *Context) Teardown(ctx context.Context, opts TeardownOptions) error {
	var errs *multierror.Error
	for _, step := range c.teardownSteps() {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		err = fmt.Errorf("teardown %s: %w", step.name, err)
		if !opts.ContinueOnError {
			return err
		}
		log.Warn(err.Error())
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

type teardownStep struct {
	name string
	run  func(context.Context) error
}

func (c *Context) teardownSteps() []teardownStep {
	var steps []teardownStep
	trashOwners := map[string]bool{}

	for i := len(c.order) - 1; i >= 0; i-- {
		n := c.nodes[c.order[i]]
		if !n.Created || n.Removed {
			continue
		}
		if n.Trashed {
			trashOwners[n.TrashedBy] = true
			continue
		}
		steps = append(steps, teardownStep{"node " + n.Key, func(ctx context.Context) error {
			return c.deleteNode(ctx, n)
		}})
	}

	for _, s := range c.sortedSites() {
		if !s.Created || s.Removed {
			continue
		}
		steps = append(steps, teardownStep{"site " + s.Key, func(ctx context.Context) error {
			cl, err := c.Client(s.Owner)
			if err != nil {
				return err
			}
			if err = cl.DeleteSite(ctx, s.ID, true); err != nil && !request.IsNotFound(err) {
				return err
			}
			s.Removed = true
			return nil
		}})
	}

	for _, key := range sortedKeys(trashOwners) {
		steps = append(steps, teardownStep{"trashcan of " + c.principalName(key), func(ctx context.Context) error {
			cl, err := c.Client(key)
			if err != nil {
				return err
			}
			if err = cl.EmptyTrash(ctx); err != nil {
				return err
			}
			for _, n := range c.nodes {
				if n.Trashed && n.TrashedBy == key {
					n.Removed = true
				}
			}
			return nil
		}})
	}

	for _, u := range c.sortedUsers() {
		if !u.Created || u.Removed {
			continue
		}
		steps = append(steps, teardownStep{"user " + u.Key, func(ctx context.Context) error {
			if err := c.admin.DeletePerson(ctx, u.ID); err != nil && !request.IsNotFound(err) {
				return err
			}
			u.Removed = true
			delete(c.clients, u.Key)
			return nil
		}})
	}
	return steps
}

func (c *Context) deleteNode(ctx context.Context, n *Node) error {
	cl, err := c.Client(n.Owner)
	if err != nil {
		return err
	}
	if err = cl.DeleteNode(ctx, n.ID, true); err != nil && !request.IsNotFound(err) {
		return err
	}
	c.markRemoved(n)
	return nil
}

func (c *Context) principalName(key string) string {
	if key == "" {
		return "admin"
	}
	return key
}
