// Package docstore wraps MinIO/S3 for staged claim documents. Uploads land
// here first; the worker forwards them to the upstream API afterwards.
package docstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/puresec-ng/banyan-portal/internal/config"
)

// Store wraps MinIO interactions for the staging bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Store{
		client: client,
		bucket: cfg.StagingBucket,
		region: cfg.S3Region,
	}, nil
}

// EnsureBucket makes sure the staging bucket exists before use.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ObjectKey builds the staging key for an upload.
func ObjectKey(ownerID, docID, filename string) string {
	return fmt.Sprintf("staging/%s/%s/%s", ownerID, docID, path.Base(filename))
}

// Put streams an upload into the staging bucket.
func (s *Store) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, opts); err != nil {
		return fmt.Errorf("put staged object: %w", err)
	}
	return nil
}

// Fetch reads a staged object back for forwarding.
func (s *Store) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get staged object: %w", err)
	}
	defer obj.Close()
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read staged object: %w", err)
	}
	return buf, nil
}

// PutBytes stores an in-memory payload; used by tests and small re-stages.
func (s *Store) PutBytes(ctx context.Context, objectKey string, data []byte, contentType string) error {
	return s.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType)
}

// Remove deletes a staged object once it has been forwarded.
func (s *Store) Remove(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove staged object: %w", err)
	}
	return nil
}

// PresignURL returns a short-lived GET URL so the review step can show the
// staged file before it reaches the upstream.
func (s *Store) PresignURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign staged object: %w", err)
	}
	return u.String(), nil
}
