// Package auth implements the ticket based authentication of the content
// repository: a user/password pair is exchanged once for a ticket, which is
// then sent on every request instead of the password.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/contentapp/e2e/client/request"
)

// TicketsPath is the path of the authentication API.
const TicketsPath = "/alfresco/api/-default-/public/authentication/versions/1/tickets"

// ErrWrongCredentials is returned when the repository refuses the
// user/password pair.
var ErrWrongCredentials = errors.New("Unauthorized: wrong username or password")

type (
	// Ticket is an authentication ticket delivered by the repository.
	Ticket struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
	}

	// Request holds the parameters of a login against the repository.
	//
	// When a Storage is set, the ticket is reused across processes as long as
	// the repository still accepts it.
	Request struct {
		BaseURL    *url.URL
		Username   string
		Password   string
		HTTPClient *http.Client
		UserAgent  string
		Storage    Storage

		mu     sync.Mutex
		ticket *Ticket
	}

	// Error is the authentication error body.
	Error struct {
		Err struct {
			StatusCode int    `json:"statusCode"`
			ErrorKey   string `json:"errorKey"`
			Summary    string `json:"briefSummary"`
		} `json:"error"`
	}
)

// AuthHeader implements the request.Authorizer interface for the ticket: the
// repository expects the ticket as the basic auth payload.
func (t *Ticket) AuthHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(t.ID))
}

// AuthHeader implements the request.Authorizer interface for the request.
func (r *Request) AuthHeader() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticket == nil {
		return ""
	}
	return r.ticket.AuthHeader()
}

// Ticket returns the current ticket, nil before Authenticate.
func (r *Request) Ticket() *Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticket
}

func (r *Request) storageKey() string {
	return r.BaseURL.Host + "/" + r.Username
}

// Authenticate gets a ticket for the configured user.
//
// If the storage has a ticket for this user and the repository still accepts
// it, it is reused and no login is made.
func (r *Request) Authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticket != nil {
		return nil
	}

	if r.Storage != nil {
		stored, err := r.Storage.Load(r.storageKey())
		if err != nil {
			return err
		}
		if stored != nil && r.validate(ctx, stored) {
			r.ticket = stored
			return nil
		}
	}

	ticket, err := r.login(ctx)
	if err != nil {
		return err
	}
	if r.Storage != nil {
		if err = r.Storage.Save(r.storageKey(), ticket); err != nil {
			return err
		}
	}
	r.ticket = ticket
	return nil
}

// Logout deletes the ticket on the repository and forgets it.
func (r *Request) Logout(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticket == nil {
		return nil
	}
	_, err := r.req(ctx, &request.Options{
		Method:     http.MethodDelete,
		Path:       TicketsPath + "/-me-",
		Authorizer: r.ticket,
		NoResponse: true,
	})
	if err != nil && !request.IsStatus(err, http.StatusNotFound) {
		return err
	}
	r.ticket = nil
	if r.Storage != nil {
		return r.Storage.Save(r.storageKey(), nil)
	}
	return nil
}

func (r *Request) login(ctx context.Context) (*Ticket, error) {
	body, err := request.WriteJSON(map[string]string{
		"userId":   r.Username,
		"password": r.Password,
	})
	if err != nil {
		return nil, err
	}
	res, err := r.req(ctx, &request.Options{
		Method: http.MethodPost,
		Path:   TicketsPath,
		Headers: request.Headers{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: body,
	})
	if err != nil {
		if request.IsStatus(err, http.StatusForbidden) || request.IsStatus(err, http.StatusUnauthorized) {
			return nil, ErrWrongCredentials
		}
		return nil, err
	}
	var doc struct {
		Entry *Ticket `json:"entry"`
	}
	if err = request.ReadJSON(res.Body, &doc); err != nil {
		return nil, err
	}
	if doc.Entry == nil || doc.Entry.ID == "" {
		return nil, errors.New("auth: empty ticket in response")
	}
	return doc.Entry, nil
}

func (r *Request) validate(ctx context.Context, t *Ticket) bool {
	_, err := r.req(ctx, &request.Options{
		Method:     http.MethodGet,
		Path:       TicketsPath + "/-me-",
		Authorizer: t,
		NoResponse: true,
	})
	return err == nil
}

// req performs an authentication HTTP request
func (r *Request) req(ctx context.Context, opts *request.Options) (*http.Response, error) {
	opts.BaseURL = r.BaseURL
	opts.Client = r.HTTPClient
	opts.UserAgent = r.UserAgent
	opts.ParseError = parseError
	return request.Req(ctx, opts)
}

func parseError(res *http.Response, b []byte) error {
	var e Error
	if err := json.Unmarshal(b, &e); err != nil || e.Err.StatusCode == 0 {
		return &request.Error{
			StatusCode: res.StatusCode,
			Status:     http.StatusText(res.StatusCode),
			Title:      http.StatusText(res.StatusCode),
			Detail:     string(b),
		}
	}
	return &request.Error{
		StatusCode: e.Err.StatusCode,
		Status:     http.StatusText(e.Err.StatusCode),
		Title:      e.Err.ErrorKey,
		Detail:     e.Err.Summary,
	}
}
