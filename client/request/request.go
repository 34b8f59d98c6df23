package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultUserAgent = "go-content-e2e"

type (
	// Authorizer is an interface to represent any element that can be used as a
	// token bearer.
	Authorizer interface {
		AuthHeader() string
	}

	// Headers is a map of strings used to represent HTTP headers
	Headers map[string]string

	// Options is a struct holding of the details of a request.
	//
	// The NoResponse field can be used in case the call's response if not used. In
	// such cases, the response body is automatically closed.
	Options struct {
		BaseURL    *url.URL
		Method     string
		Path       string
		Queries    url.Values
		Headers    Headers
		Body       io.Reader
		Authorizer Authorizer
		NoResponse bool

		Client     *http.Client
		UserAgent  string
		ParseError func(res *http.Response, b []byte) error
	}

	// Error is the error returned by the repository when the status code is
	// not a 2xx one.
	Error struct {
		StatusCode int    `json:"statusCode"`
		Status     string `json:"status,omitempty"`
		Title      string `json:"errorKey,omitempty"`
		Detail     string `json:"briefSummary,omitempty"`
	}
)

func (e *Error) Error() string {
	if e.Detail == "" || e.Title == e.Detail {
		return e.Title
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

// IsStatus returns true if err is (or wraps) a repository error with the
// given status code.
func IsStatus(err error, code int) bool {
	var reqErr *Error
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.StatusCode == code
}

// IsNotFound is a shortcut for IsStatus(err, http.StatusNotFound).
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsConflict is a shortcut for IsStatus(err, http.StatusConflict).
func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}

// BasicAuthorizer implements the HTTP basic auth for authorization.
type BasicAuthorizer struct {
	Username string
	Password string
}

// AuthHeader implemented the interface Authorizer.
func (b *BasicAuthorizer) AuthHeader() string {
	auth := b.Username + ":" + b.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(auth))
}

// BearerAuthorizer implements a placeholder authorizer if the token is already
// known.
type BearerAuthorizer struct {
	Token string
}

// AuthHeader implemented the interface Authorizer.
func (b *BearerAuthorizer) AuthHeader() string {
	return "Bearer " + b.Token
}

// Req performs a request with the specified request options.
func Req(ctx context.Context, opts *Options) (*http.Response, error) {
	if opts.BaseURL == nil {
		return nil, errors.New("request: missing base URL")
	}
	u := *opts.BaseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + opts.Path
	if opts.Queries != nil {
		u.RawQuery = opts.Queries.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), opts.Body)
	if err != nil {
		return nil, err
	}

	if opts.Headers != nil {
		for k, v := range opts.Headers {
			if k == "Content-Length" {
				var contentLength int64
				contentLength, err = strconv.ParseInt(v, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("Invalid Content-Length value")
				}
				req.ContentLength = contentLength
			} else {
				req.Header.Add(k, v)
			}
		}
	}

	if opts.Authorizer != nil {
		req.Header.Add("Authorization", opts.Authorizer.AuthHeader())
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	req.Header.Add("User-Agent", ua)

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, parseError(opts, res)
	}

	if opts.NoResponse {
		err = res.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

func parseError(opts *Options, res *http.Response) (err error) {
	defer checkClose(res.Body, &err)
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{
			StatusCode: res.StatusCode,
			Status:     http.StatusText(res.StatusCode),
			Title:      http.StatusText(res.StatusCode),
			Detail:     err.Error(),
		}
	}
	if opts.ParseError == nil {
		return &Error{
			StatusCode: res.StatusCode,
			Status:     http.StatusText(res.StatusCode),
			Title:      http.StatusText(res.StatusCode),
			Detail:     string(b),
		}
	}
	return opts.ParseError(res, b)
}

// ReadJSON reads the content of the specified ReadCloser and closes it.
func ReadJSON(r io.ReadCloser, data interface{}) (err error) {
	defer checkClose(r, &err)
	return json.NewDecoder(r).Decode(&data)
}

// WriteJSON returns an io.Reader from which a JSON encoded data can be read.
func WriteJSON(data interface{}) (io.Reader, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

func checkClose(c io.Closer, err *error) {
	cerr := c.Close()
	if *err == nil && cerr != nil {
		*err = cerr
	}
}
