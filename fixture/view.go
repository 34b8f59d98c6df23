package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/pkg/metrics"
	"github.com/contentapp/e2e/pkg/wait"
)

// View is a list of the repository whose content is indexed asynchronously,
// and must be waited for.
type View string

// Views that can be waited for.
const (
	ViewShared    View = "shared"
	ViewFavorites View = "favorites"
	ViewTrash     View = "trash"
	ViewSites     View = "sites"
)

// Views is the list of the known views.
var Views = []View{ViewShared, ViewFavorites, ViewTrash, ViewSites}

func (v View) valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// ParseView returns the view with the given name.
func ParseView(name string) (View, error) {
	v := View(name)
	if !v.valid() {
		return "", fmt.Errorf("unknown view %q, expected one of %v", name, Views)
	}
	return v, nil
}

// Count returns the number of items the repository currently reports in the
// view, for the user of c.
func (v View) Count(ctx context.Context, c *client.Client) (int, error) {
	switch v {
	case ViewShared:
		return c.CountSharedLinks(ctx)
	case ViewFavorites:
		return c.CountFavorites(ctx)
	case ViewTrash:
		return c.CountDeletedNodes(ctx)
	case ViewSites:
		sites, err := c.ListSites(ctx)
		return len(sites), err
	}
	return 0, fmt.Errorf("unknown view %q", v)
}

// WaitForCount polls the view until it reports exactly expect items, or the
// timeout of opts is reached.
func WaitForCount(ctx context.Context, opts wait.Options, c *client.Client, v View, expect int) error {
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("%s view", v)
	}
	start := time.Now()
	err := wait.ForCount(ctx, opts, expect, func(ctx context.Context) (int, error) {
		return v.Count(ctx, c)
	})
	metrics.ObserveWait(string(v), err, start)
	return err
}
