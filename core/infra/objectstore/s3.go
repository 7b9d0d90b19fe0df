package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store implements Store against any S3-compatible endpoint
// (R2, MinIO, AWS S3).
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store constructs a store from an explicit config.
func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("objectstore: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("objectstore: bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: init client: %w", err)
	}
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Exists probes object metadata. A 404 from the store is an
// authoritative miss, not an error.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, key, err)
	}
	return true, nil
}

// Put uploads the packaged artifact at localPath under key.
func (s *S3Store) Put(ctx context.Context, localPath, key string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// PresignGet issues a signed read URL. Each call produces an
// independently valid grant; previously issued grants are unaffected.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (Grant, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: presign %s: %v", ErrUnavailable, key, err)
	}
	return Grant{URL: u.String(), ExpiresAt: time.Now().UTC().Add(ttl)}, nil
}
