package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/pkg/config"
)

// Store keeps the archives of the test runs.
type Store interface {
	// Prepare makes sure the folder exists before the upload.
	Prepare(ctx context.Context, folder string) error
	// Put uploads the archive in the prepared folder, and returns where it
	// has been stored.
	Put(ctx context.Context, name string, r io.Reader, size int64) (string, error)
}

// NewStore returns the store selected by the upload configuration. The
// repository client is only used by the repository store.
func NewStore(cfg config.Upload, repo *client.Client) (Store, error) {
	switch cfg.Store {
	case "", config.StoreRepository:
		if repo == nil {
			return nil, errors.New("repository store: no client")
		}
		return &RepositoryStore{Client: repo}, nil
	case config.StoreS3:
		return NewS3Store(cfg.S3)
	case config.StoreSwift:
		return NewSwiftStore(cfg.Swift)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// RepositoryStore uploads the archives in the home folder of a repository
// user.
type RepositoryStore struct {
	Client *client.Client

	folder   string
	folderID string
}

// Prepare creates the folder, or fetches it when the creation fails for any
// reason.
func (s *RepositoryStore) Prepare(ctx context.Context, folder string) error {
	dir, name := path.Split(folder)
	res, err := client.CreateOrFetch(ctx,
		func(ctx context.Context) (*client.Node, error) {
			return s.Client.CreateNode(ctx, client.NodeOptions{
				Name:         name,
				NodeType:     client.TypeFolder,
				RelativePath: dir,
				Overwrite:    true,
			})
		},
		func(ctx context.Context) (*client.Node, error) {
			return s.Client.GetNode(ctx, client.MyNodeID, folder)
		},
		func(error) bool { return true })
	if err != nil {
		return err
	}
	log.Debugf("Folder %s %s", folder, res.Outcome)
	s.folder = folder
	s.folderID = res.Value.ID
	return nil
}

// Put uploads the archive. An existing archive with the same name is kept,
// the new one is renamed.
func (s *RepositoryStore) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	if s.folderID == "" {
		return "", errors.New("folder not prepared")
	}
	node, err := s.Client.Upload(ctx, client.UploadOptions{
		ParentID:   s.folderID,
		Name:       name,
		NodeType:   client.TypeContent,
		AutoRename: true,
		Contents:   r,
		Size:       size,
	})
	if err != nil {
		return "", err
	}
	return path.Join(s.folder, node.Name), nil
}
