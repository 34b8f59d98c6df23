// Package client is a REST client for the public API of the content
// repository. It is used by the fixture provisioner to create the test data,
// and by the collector to upload the test reports.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/contentapp/e2e/client/auth"
	"github.com/contentapp/e2e/client/request"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/contentapp/e2e/pkg/metrics"
	"github.com/google/go-querystring/query"
	"github.com/tidwall/gjson"
)

// APIPath is the prefix of the public REST API of the repository.
const APIPath = "/alfresco/api/-default-/public/alfresco/versions/1"

// MyNodeID is the alias of the home folder of the authenticated user.
const MyNodeID = "-my-"

var (
	// ErrNotFound is used when a resource looked up by name does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is used when an existing resource cannot be reused, for
	// example a file where a folder is expected.
	ErrConflict = errors.New("conflict")
)

var log = logger.WithNamespace("client")

// apiError is the error body returned by the repository.
type apiError struct {
	Error *request.Error `json:"error"`
}

// Client encapsulates the element representing a connection to the REST API
// of the content repository.
//
// It holds the elements to authenticate a user, as well as the transport layer
// used for all the calls to the repository. The credentials are exchanged for a
// ticket on the first request, unless an Authorizer is given.
type Client struct {
	URL      *url.URL
	Username string
	Password string
	Client   *http.Client

	AuthStorage auth.Storage
	Authorizer  request.Authorizer

	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper

	inited bool
	initMu sync.Mutex
	authMu sync.Mutex
	auth   *auth.Request
}

func (c *Client) init() {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.inited {
		return
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Transport == nil {
		c.Transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		}
	}
	if c.Client == nil {
		c.Client = &http.Client{
			Timeout:   c.Timeout,
			Transport: c.Transport,
		}
	}
	c.inited = true
}

// Authenticate exchanges the credentials of the client for a ticket.
func (c *Client) Authenticate(ctx context.Context) (request.Authorizer, error) {
	c.init()
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.Authorizer != nil {
		return c.Authorizer, nil
	}
	if c.auth == nil {
		c.auth = &auth.Request{
			BaseURL:    c.URL,
			Username:   c.Username,
			Password:   c.Password,
			HTTPClient: c.Client,
			UserAgent:  c.UserAgent,
			Storage:    c.AuthStorage,
		}
	}
	if err := c.auth.Authenticate(ctx); err != nil {
		return nil, err
	}
	return c.auth, nil
}

// Logout invalidates the ticket of the client, if any.
func (c *Client) Logout(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.auth == nil {
		return nil
	}
	return c.auth.Logout(ctx)
}

// Req is used to perform a request to the repository given the options
// passed. The path is relative to APIPath.
func (c *Client) Req(ctx context.Context, opts *request.Options) (*http.Response, error) {
	authorizer, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	opts.Authorizer = authorizer
	opts.BaseURL = c.URL
	opts.Path = APIPath + opts.Path
	opts.Client = c.Client
	opts.UserAgent = c.UserAgent
	opts.ParseError = parseAPIError
	if opts.Headers == nil {
		opts.Headers = request.Headers{"Accept": "application/json"}
	}
	if log.IsDebug() {
		log.WithFields(logger.Fields{"method": opts.Method, "path": opts.Path}).
			Debug("request")
	}
	start := time.Now()
	res, err := request.Req(ctx, opts)
	metrics.ObserveRequest(opts.Method, statusCode(res, err), start)
	return res, err
}

func statusCode(res *http.Response, err error) int {
	if res != nil {
		return res.StatusCode
	}
	var reqErr *request.Error
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// jsonReq sends body as JSON and decodes the {"entry": ...} envelope of the
// response into out, when out is not nil.
func (c *Client) jsonReq(ctx context.Context, method, path string, q url.Values, body, out interface{}) error {
	opts := &request.Options{
		Method:     method,
		Path:       path,
		Queries:    q,
		NoResponse: out == nil,
		Headers:    request.Headers{"Accept": "application/json"},
	}
	if body != nil {
		r, err := request.WriteJSON(body)
		if err != nil {
			return err
		}
		opts.Body = r
		opts.Headers["Content-Type"] = "application/json"
	}
	res, err := c.Req(ctx, opts)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return readEntry(res.Body, out)
}

func parseAPIError(res *http.Response, b []byte) error {
	var body apiError
	if err := json.Unmarshal(b, &body); err != nil || body.Error == nil {
		return &request.Error{
			StatusCode: res.StatusCode,
			Status:     http.StatusText(res.StatusCode),
			Title:      http.StatusText(res.StatusCode),
			Detail:     string(b),
		}
	}
	if body.Error.StatusCode == 0 {
		body.Error.StatusCode = res.StatusCode
	}
	body.Error.Status = http.StatusText(body.Error.StatusCode)
	return body.Error
}

func readEntry(r io.ReadCloser, data interface{}) error {
	var doc struct {
		Entry json.RawMessage `json:"entry"`
	}
	if err := request.ReadJSON(r, &doc); err != nil {
		return err
	}
	if len(doc.Entry) == 0 {
		return errors.New("client: missing entry in response")
	}
	return json.Unmarshal(doc.Entry, data)
}

// Pagination is the pagination block of the list responses.
type Pagination struct {
	Count        int  `json:"count"`
	HasMoreItems bool `json:"hasMoreItems"`
	TotalItems   int  `json:"totalItems"`
	SkipCount    int  `json:"skipCount"`
	MaxItems     int  `json:"maxItems"`
}

// ListOptions are the query parameters common to the list endpoints.
type ListOptions struct {
	SkipCount int      `url:"skipCount,omitempty"`
	MaxItems  int      `url:"maxItems,omitempty"`
	Include   []string `url:"include,comma,omitempty"`
	OrderBy   string   `url:"orderBy,omitempty"`
	Where     string   `url:"where,omitempty"`
}

// readList decodes a page of a {"list": {"pagination", "entries"}} envelope.
// The entries are unwrapped from their {"entry": ...} objects.
func readList(r io.ReadCloser, entries interface{}) (*Pagination, error) {
	b, err := io.ReadAll(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(b) {
		return nil, errors.New("client: invalid JSON in list response")
	}
	var page Pagination
	if p := gjson.GetBytes(b, "list.pagination"); p.Exists() {
		if err = json.Unmarshal([]byte(p.Raw), &page); err != nil {
			return nil, err
		}
	}
	if entries != nil {
		raw := gjson.GetBytes(b, "list.entries.#.entry").Raw
		if raw == "" {
			raw = "[]"
		}
		if err = json.Unmarshal([]byte(raw), entries); err != nil {
			return nil, err
		}
	}
	return &page, nil
}

// list fetches a single page.
func list[T any](ctx context.Context, c *Client, path string, opts ListOptions) ([]T, *Pagination, error) {
	q, err := query.Values(opts)
	if err != nil {
		return nil, nil, err
	}
	res, err := c.Req(ctx, &request.Options{
		Method:  http.MethodGet,
		Path:    path,
		Queries: q,
	})
	if err != nil {
		return nil, nil, err
	}
	var items []T
	page, err := readList(res.Body, &items)
	if err != nil {
		return nil, nil, err
	}
	return items, page, nil
}

// listAll follows the pagination until the last page.
func listAll[T any](ctx context.Context, c *Client, path string, opts ListOptions) ([]T, error) {
	var all []T
	for {
		items, page, err := list[T](ctx, c, path, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if !page.HasMoreItems || len(items) == 0 {
			return all, nil
		}
		opts.SkipCount += len(items)
	}
}

// count returns the total number of items of a list endpoint, as reported by
// its pagination, without fetching them.
func count(ctx context.Context, c *Client, path string) (int, error) {
	_, page, err := list[json.RawMessage](ctx, c, path, ListOptions{MaxItems: 1})
	if err != nil {
		return 0, err
	}
	return page.TotalItems, nil
}
