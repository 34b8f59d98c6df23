package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReq(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/base/ok":
			assert.Equal(t, "Basic dXNlcjpwYXNz", r.Header.Get("Authorization"))
			assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "v", r.URL.Query().Get("k"))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"foo"}`, string(body))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"ok":true}`)
		default:
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, "duplicate")
		}
	}))
	defer ts.Close()

	base, err := url.Parse(ts.URL + "/base/")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		body, err := WriteJSON(map[string]string{"name": "foo"})
		require.NoError(t, err)
		res, err := Req(context.Background(), &Options{
			BaseURL:    base,
			Method:     http.MethodPost,
			Path:       "/ok",
			Queries:    url.Values{"k": {"v"}},
			Body:       body,
			Authorizer: &BasicAuthorizer{Username: "user", Password: "pass"},
		})
		require.NoError(t, err)
		var out map[string]bool
		require.NoError(t, ReadJSON(res.Body, &out))
		assert.True(t, out["ok"])
	})

	t.Run("Error", func(t *testing.T) {
		_, err := Req(context.Background(), &Options{
			BaseURL: base,
			Method:  http.MethodGet,
			Path:    "/ko",
		})
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		assert.False(t, IsNotFound(err))
		assert.Equal(t, "Conflict: duplicate", err.Error())
	})

	t.Run("ParseErrorHook", func(t *testing.T) {
		_, err := Req(context.Background(), &Options{
			BaseURL: base,
			Method:  http.MethodGet,
			Path:    "/ko",
			ParseError: func(res *http.Response, b []byte) error {
				return &Error{StatusCode: res.StatusCode, Title: "hooked", Detail: string(b)}
			},
		})
		assert.EqualError(t, err, "hooked: duplicate")
	})

	t.Run("MissingBaseURL", func(t *testing.T) {
		_, err := Req(context.Background(), &Options{Method: http.MethodGet})
		assert.Error(t, err)
	})
}

func TestAuthorizers(t *testing.T) {
	assert.Equal(t, "Bearer token", (&BearerAuthorizer{Token: "token"}).AuthHeader())
	assert.Equal(t, "Basic YWRtaW46YWRtaW4=", (&BasicAuthorizer{Username: "admin", Password: "admin"}).AuthHeader())
}
