package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/contentapp/e2e/client/request"
)

const deletedNodesPath = "/deleted-nodes"

// ListDeletedNodes returns the nodes in the trashcan of the authenticated
// user.
func (c *Client) ListDeletedNodes(ctx context.Context) ([]*Node, error) {
	return listAll[*Node](ctx, c, deletedNodesPath, ListOptions{Include: []string{"path"}})
}

// CountDeletedNodes returns the number of nodes in the trashcan.
func (c *Client) CountDeletedNodes(ctx context.Context) (int, error) {
	return count(ctx, c, deletedNodesPath)
}

// PurgeDeletedNode permanently deletes a node of the trashcan.
func (c *Client) PurgeDeletedNode(ctx context.Context, id string) error {
	return c.jsonReq(ctx, http.MethodDelete, deletedNodesPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// EmptyTrash purges every node of the trashcan.
func (c *Client) EmptyTrash(ctx context.Context) error {
	nodes, err := c.ListDeletedNodes(ctx)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		err := c.PurgeDeletedNode(ctx, n.ID)
		// A node under a purged folder is purged with it.
		if err != nil && !request.IsNotFound(err) {
			return fmt.Errorf("cannot purge %s: %w", n.Name, err)
		}
	}
	return nil
}
