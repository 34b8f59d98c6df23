package client

import (
	"context"
	"net/http"
	"net/url"
)

// Person is a user account of the repository.
type Person struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Enabled   bool   `json:"enabled"`
}

// PersonOptions contains the options passed on person creation.
type PersonOptions struct {
	ID        string `json:"id" yaml:"id"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Email     string `json:"email" yaml:"email"`
	Password  string `json:"password" yaml:"password"`
}

// CreatePerson creates a user account. It requires an administrator.
func (c *Client) CreatePerson(ctx context.Context, opts PersonOptions) (*Person, error) {
	if opts.FirstName == "" {
		opts.FirstName = opts.ID
	}
	if opts.Email == "" {
		opts.Email = opts.ID + "@example.com"
	}
	if opts.Password == "" {
		opts.Password = opts.ID
	}
	var p Person
	if err := c.jsonReq(ctx, http.MethodPost, "/people", nil, opts, &p); err != nil {
		return nil, err
	}
	log.WithField("person", p.ID).Debug("person created")
	return &p, nil
}

// GetPerson returns the person with the given id, or "-me-".
func (c *Client) GetPerson(ctx context.Context, id string) (*Person, error) {
	var p Person
	if err := c.jsonReq(ctx, http.MethodGet, "/people/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePerson deletes a user account. It requires an administrator.
func (c *Client) DeletePerson(ctx context.Context, id string) error {
	return c.jsonReq(ctx, http.MethodDelete, "/people/"+url.PathEscape(id), nil, nil, nil)
}
