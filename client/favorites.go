package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FavoriteKind is the kind of the target of a favorite.
type FavoriteKind string

// Favorite kinds.
const (
	FavoriteFile   FavoriteKind = "file"
	FavoriteFolder FavoriteKind = "folder"
	FavoriteSite   FavoriteKind = "site"
)

// Favorite is a node marked as favorite by a person.
type Favorite struct {
	TargetGUID string           `json:"targetGuid"`
	CreatedAt  time.Time        `json:"createdAt"`
	Target     map[string]*Node `json:"target"`
}

// Node returns the target of the favorite.
func (f *Favorite) Node() *Node {
	for _, n := range f.Target {
		return n
	}
	return nil
}

const favoritesPath = "/people/-me-/favorites"

// AddFavorite marks the node as a favorite of the authenticated user.
func (c *Client) AddFavorite(ctx context.Context, kind FavoriteKind, id string) (*Favorite, error) {
	switch kind {
	case FavoriteFile, FavoriteFolder, FavoriteSite:
	default:
		return nil, fmt.Errorf("unknown favorite kind %q", kind)
	}
	body := map[string]interface{}{
		"target": map[string]interface{}{
			string(kind): map[string]string{"guid": id},
		},
	}
	var f Favorite
	if err := c.jsonReq(ctx, http.MethodPost, favoritesPath, nil, body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// RemoveFavorite unmarks the node.
func (c *Client) RemoveFavorite(ctx context.Context, id string) error {
	return c.jsonReq(ctx, http.MethodDelete, favoritesPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// ListFavorites returns the favorites currently indexed.
func (c *Client) ListFavorites(ctx context.Context) ([]*Favorite, error) {
	return listAll[*Favorite](ctx, c, favoritesPath, ListOptions{Include: []string{"path"}})
}

// CountFavorites returns the number of favorites currently indexed.
func (c *Client) CountFavorites(ctx context.Context) (int, error) {
	return count(ctx, c, favoritesPath)
}
