package client

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/contentapp/e2e/client/auth"
	"github.com/contentapp/e2e/client/tlsclient"
	"github.com/contentapp/e2e/pkg/config"
)

// Factory builds the clients of a repository, for the admin and for the
// users created by the fixtures. They share the same HTTP client.
type Factory struct {
	URL     *url.URL
	Config  config.Repository
	HTTP    *http.Client
	Storage auth.Storage
}

// NewFactory returns a factory for the repository section of the
// configuration. The TLS settings can be completed by the
// E2E_REPOSITORY_TLS_* env variables.
func NewFactory(cfg config.Repository, storage auth.Storage) (*Factory, error) {
	if cfg.URL == "" {
		return nil, errors.New("no repository URL")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}
	httpClient, err := tlsclient.NewHTTPClient(tlsclient.Options{
		Timeout:                cfg.Timeout,
		EnvPrefix:              "E2E_REPOSITORY_TLS",
		RootCAFile:             cfg.RootCA,
		InsecureSkipValidation: cfg.InsecureSkipValidation,
	})
	if err != nil {
		return nil, err
	}
	return &Factory{URL: u, Config: cfg, HTTP: httpClient, Storage: storage}, nil
}

// Admin returns a client authenticated as the admin of the repository.
func (f *Factory) Admin() *Client {
	return f.For(f.Config.AdminUser, f.Config.AdminPassword)
}

// For returns a client authenticated as the user.
func (f *Factory) For(username, password string) *Client {
	return &Client{
		URL:         f.URL,
		Username:    username,
		Password:    password,
		Client:      f.HTTP,
		AuthStorage: f.Storage,
		Timeout:     f.Config.Timeout,
	}
}
