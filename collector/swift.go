package collector

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/contentapp/e2e/pkg/config"
	"github.com/ncw/swift/v2"
)

// SwiftStore uploads the archives in a container of an OpenStack Swift
// object storage.
type SwiftStore struct {
	Conn      *swift.Connection
	Container string
	Prefix    string

	folder string
}

// NewSwiftStore returns a store for the Swift section of the configuration.
func NewSwiftStore(cfg config.Swift) (*SwiftStore, error) {
	if cfg.AuthURL == "" || cfg.Container == "" {
		return nil, errors.New("swift: auth URL and container are required")
	}
	conn := &swift.Connection{
		UserName: cfg.UserName,
		ApiKey:   cfg.APIKey,
		AuthUrl:  cfg.AuthURL,
		Tenant:   cfg.Tenant,
		Domain:   cfg.Domain,
	}
	return &SwiftStore{Conn: conn, Container: cfg.Container, Prefix: cfg.Prefix}, nil
}

// Prepare authenticates and creates the container if needed.
func (s *SwiftStore) Prepare(ctx context.Context, folder string) error {
	if !s.Conn.Authenticated() {
		if err := s.Conn.Authenticate(ctx); err != nil {
			return err
		}
	}
	if _, _, err := s.Conn.Container(ctx, s.Container); err != nil {
		if !errors.Is(err, swift.ContainerNotFound) {
			return err
		}
		log.Infof("Creating container %s", s.Container)
		if err = s.Conn.ContainerCreate(ctx, s.Container, nil); err != nil {
			return err
		}
	}
	s.folder = path.Join(s.Prefix, folder)
	return nil
}

// Put uploads the archive as an object.
func (s *SwiftStore) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	obj := path.Join(s.folder, name)
	if _, err := s.Conn.ObjectPut(ctx, s.Container, obj, r, false, "", "application/x-tar", nil); err != nil {
		return "", err
	}
	return s.Container + "/" + obj, nil
}
