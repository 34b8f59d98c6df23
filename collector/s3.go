package collector

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/contentapp/e2e/pkg/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store uploads the archives in a bucket of an S3 compatible object
// storage.
type S3Store struct {
	Client *minio.Client
	Bucket string
	Region string
	Prefix string

	folder string
}

// NewS3Store returns a store for the S3 section of the configuration.
func NewS3Store(cfg config.S3) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3: endpoint and bucket are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &S3Store{Client: mc, Bucket: cfg.Bucket, Region: cfg.Region, Prefix: cfg.Prefix}, nil
}

// Prepare creates the bucket if needed. The folder is only a key prefix.
func (s *S3Store) Prepare(ctx context.Context, folder string) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		log.Infof("Creating bucket %s", s.Bucket)
		if err = s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{Region: s.Region}); err != nil {
			return err
		}
	}
	s.folder = path.Join(s.Prefix, folder)
	return nil
}

// Put uploads the archive as an object.
func (s *S3Store) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	key := path.Join(s.folder, name)
	_, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/x-tar",
	})
	if err != nil {
		return "", err
	}
	return s.Bucket + "/" + key, nil
}
