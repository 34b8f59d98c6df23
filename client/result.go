package client

import (
	"context"
	"fmt"
	"path"

	"github.com/contentapp/e2e/client/request"
)

// Outcome tells how a create-or-fetch call got its resource.
type Outcome int

const (
	// Created means the resource did not exist and has been created.
	Created Outcome = iota
	// AlreadyExists means the creation was refused and the existing resource
	// has been fetched instead.
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already exists"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is the tagged result of a create-or-fetch call.
type Result[T any] struct {
	Value   T
	Outcome Outcome
}

// Created returns true if the resource has been created by this call, and
// should then be deleted by the one who made it.
func (r Result[T]) Created() bool {
	return r.Outcome == Created
}

// CreateOrFetch calls create, and if it fails with an error for which
// recoverable returns true, calls fetch to get the existing resource. A nil
// recoverable means only conflicts are recovered.
func CreateOrFetch[T any](
	ctx context.Context,
	create, fetch func(context.Context) (T, error),
	recoverable func(error) bool,
) (Result[T], error) {
	if recoverable == nil {
		recoverable = request.IsConflict
	}
	v, err := create(ctx)
	if err == nil {
		return Result[T]{Value: v, Outcome: Created}, nil
	}
	if !recoverable(err) {
		return Result[T]{}, err
	}
	log.Debugf("create failed, fetching the existing resource: %s", err)
	v, ferr := fetch(ctx)
	if ferr != nil {
		return Result[T]{}, fmt.Errorf("create failed (%s) and fetch failed: %w", err, ferr)
	}
	return Result[T]{Value: v, Outcome: AlreadyExists}, nil
}

// EnsurePerson creates the person or fetches the existing one.
func (c *Client) EnsurePerson(ctx context.Context, opts PersonOptions) (Result[*Person], error) {
	return CreateOrFetch(ctx,
		func(ctx context.Context) (*Person, error) { return c.CreatePerson(ctx, opts) },
		func(ctx context.Context) (*Person, error) { return c.GetPerson(ctx, opts.ID) },
		nil)
}

// EnsureSite creates the site or fetches the existing one.
func (c *Client) EnsureSite(ctx context.Context, opts SiteOptions) (Result[*Site], error) {
	return CreateOrFetch(ctx,
		func(ctx context.Context) (*Site, error) { return c.CreateSite(ctx, opts) },
		func(ctx context.Context) (*Site, error) { return c.GetSite(ctx, opts.ID) },
		nil)
}

// EnsureSiteMember adds the member, an existing membership is kept as is.
func (c *Client) EnsureSiteMember(ctx context.Context, siteID, personID, role string) (Result[*SiteMember], error) {
	return CreateOrFetch(ctx,
		func(ctx context.Context) (*SiteMember, error) {
			return c.AddSiteMember(ctx, siteID, personID, role)
		},
		func(ctx context.Context) (*SiteMember, error) {
			return &SiteMember{ID: personID, Role: role}, nil
		},
		nil)
}

// EnsureNode creates the node or fetches the existing one at the same path.
// It fails with ErrConflict if the existing node is not of the expected
// type.
func (c *Client) EnsureNode(ctx context.Context, opts NodeOptions) (Result[*Node], error) {
	if opts.NodeType == "" {
		opts.NodeType = TypeContent
	}
	res, err := CreateOrFetch(ctx,
		func(ctx context.Context) (*Node, error) { return c.CreateNode(ctx, opts) },
		func(ctx context.Context) (*Node, error) {
			return c.GetNode(ctx, opts.ParentID, path.Join(opts.RelativePath, opts.Name))
		},
		nil)
	if err != nil {
		return res, err
	}
	if res.Value.NodeType != opts.NodeType {
		return Result[*Node]{}, fmt.Errorf("%s exists with type %s: %w", opts.Name, res.Value.NodeType, ErrConflict)
	}
	return res, nil
}

// EnsureFolder creates the folder or fetches the existing one.
func (c *Client) EnsureFolder(ctx context.Context, opts NodeOptions) (Result[*Node], error) {
	opts.NodeType = TypeFolder
	return c.EnsureNode(ctx, opts)
}
