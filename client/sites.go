package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Site visibilities.
const (
	SitePublic    = "PUBLIC"
	SitePrivate   = "PRIVATE"
	SiteModerated = "MODERATED"
)

// Site roles.
const (
	SiteManager      = "SiteManager"
	SiteCollaborator = "SiteCollaborator"
	SiteContributor  = "SiteContributor"
	SiteConsumer     = "SiteConsumer"
)

// Site is a collaboration space, called a library in the web client.
type Site struct {
	ID         string `json:"id"`
	GUID       string `json:"guid"`
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	Role       string `json:"role,omitempty"`
}

// SiteOptions contains the options passed on site creation.
type SiteOptions struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Visibility string `json:"visibility" yaml:"visibility"`
}

// SiteMember is the membership of a person in a site.
type SiteMember struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type siteContainer struct {
	ID       string `json:"id"`
	FolderID string `json:"folderId"`
}

func sitePath(id string) string {
	return "/sites/" + url.PathEscape(id)
}

// CreateSite creates a site, the authenticated user becomes its manager.
func (c *Client) CreateSite(ctx context.Context, opts SiteOptions) (*Site, error) {
	if opts.Title == "" {
		opts.Title = opts.ID
	}
	if opts.Visibility == "" {
		opts.Visibility = SitePublic
	}
	var s Site
	if err := c.jsonReq(ctx, http.MethodPost, "/sites", nil, opts, &s); err != nil {
		return nil, err
	}
	log.WithField("site", s.ID).Debug("site created")
	return &s, nil
}

// GetSite returns the site with the given id.
func (c *Client) GetSite(ctx context.Context, id string) (*Site, error) {
	var s Site
	if err := c.jsonReq(ctx, http.MethodGet, sitePath(id), nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSites returns the sites visible to the authenticated user.
func (c *Client) ListSites(ctx context.Context) ([]*Site, error) {
	return listAll[*Site](ctx, c, "/sites", ListOptions{})
}

// DeleteSite deletes a site. Without permanent, its content goes to the
// trashcan of the authenticated user.
func (c *Client) DeleteSite(ctx context.Context, id string, permanent bool) error {
	q := url.Values{"permanent": {strconv.FormatBool(permanent)}}
	return c.jsonReq(ctx, http.MethodDelete, sitePath(id), q, nil, nil)
}

// AddSiteMember adds a person to a site with the given role.
func (c *Client) AddSiteMember(ctx context.Context, siteID, personID, role string) (*SiteMember, error) {
	if role == "" {
		role = SiteConsumer
	}
	body := SiteMember{ID: personID, Role: role}
	var m SiteMember
	if err := c.jsonReq(ctx, http.MethodPost, sitePath(siteID)+"/members", nil, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetDocLibID returns the id of the document library folder of the site, the
// parent of the files of the site.
func (c *Client) GetDocLibID(ctx context.Context, siteID string) (string, error) {
	var container siteContainer
	path := sitePath(siteID) + "/containers/documentLibrary"
	if err := c.jsonReq(ctx, http.MethodGet, path, nil, nil, &container); err != nil {
		return "", err
	}
	return container.ID, nil
}
