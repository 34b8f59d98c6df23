package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SharedLink is a public link on a file.
type SharedLink struct {
	ID           string    `json:"id"`
	NodeID       string    `json:"nodeId"`
	Name         string    `json:"name"`
	ModifiedAt   time.Time `json:"modifiedAt"`
	SharedByUser UserInfo  `json:"sharedByUser"`
	Path         *PathInfo `json:"path,omitempty"`
}

const sharedLinksPath = "/shared-links"

// ShareFile creates a shared link for the file.
func (c *Client) ShareFile(ctx context.Context, nodeID string) (*SharedLink, error) {
	body := map[string]string{"nodeId": nodeID}
	var l SharedLink
	if err := c.jsonReq(ctx, http.MethodPost, sharedLinksPath, nil, body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ShareFiles shares the files in order, and stops on the first error.
func (c *Client) ShareFiles(ctx context.Context, nodeIDs []string) ([]*SharedLink, error) {
	links := make([]*SharedLink, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		l, err := c.ShareFile(ctx, id)
		if err != nil {
			return links, fmt.Errorf("cannot share %s: %w", id, err)
		}
		links = append(links, l)
	}
	return links, nil
}

// ListSharedLinks returns the shared links currently indexed.
func (c *Client) ListSharedLinks(ctx context.Context) ([]*SharedLink, error) {
	return listAll[*SharedLink](ctx, c, sharedLinksPath, ListOptions{Include: []string{"path"}})
}

// CountSharedLinks returns the number of shared links currently indexed.
func (c *Client) CountSharedLinks(ctx context.Context) (int, error) {
	return count(ctx, c, sharedLinksPath)
}

// DeleteSharedLink deletes a shared link by id.
func (c *Client) DeleteSharedLink(ctx context.Context, id string) error {
	return c.jsonReq(ctx, http.MethodDelete, sharedLinksPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// UnshareFile deletes the shared link of the file with the given name. The
// link must already be indexed.
func (c *Client) UnshareFile(ctx context.Context, name string) error {
	links, err := c.ListSharedLinks(ctx)
	if err != nil {
		return err
	}
	for _, l := range links {
		if l.Name == name {
			return c.DeleteSharedLink(ctx, l.ID)
		}
	}
	return fmt.Errorf("shared link for %q: %w", name, ErrNotFound)
}
