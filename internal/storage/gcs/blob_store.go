// Package gcs archives failure snapshots in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

const defaultContentType = "text/html; charset=utf-8"

// Config names the bucket snapshots are written to.
type Config struct {
	Bucket string
}

// BlobStore writes content-addressed snapshots. An object that already exists
// under the same path is left untouched.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New wraps an existing client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{client: client, bucket: bucket}, nil
}

// Open creates a client using Application Default Credentials and fails fast
// when the bucket is missing or inaccessible. The caller owns the returned client.
func Open(ctx context.Context, cfg Config) (*BlobStore, *storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("gcs bucket %q attributes: %w", cfg.Bucket, err)
	}
	store, err := New(client, cfg)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, client, nil
}

// URI returns the gs:// address of path in this bucket.
func (s *BlobStore) URI(path string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, strings.TrimLeft(path, "/"))
}

// PutObject uploads a snapshot. A failed copy cancels the upload so no partial
// object is committed.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(path).If(storage.Conditions{DoesNotExist: true})
	writer := obj.NewWriter(wctx)
	writer.ContentType = contentType
	writer.Metadata = map[string]string{"source": "jobparser", "kind": "failure-snapshot"}

	if _, err := io.Copy(writer, r); err != nil {
		cancel()
		_ = writer.Close()
		return "", fmt.Errorf("upload snapshot %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		if alreadyStored(err) {
			return s.URI(path), nil
		}
		return "", fmt.Errorf("finalize snapshot %s: %w", path, err)
	}
	return s.URI(path), nil
}

// alreadyStored reports whether err is the precondition failure GCS returns
// when DoesNotExist finds an existing object.
func alreadyStored(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
