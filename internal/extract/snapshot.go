package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/document"
)

// BlobStore persists snapshot artifacts.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Hasher produces content digests used in snapshot keys.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Snapshotter archives the HTML of documents that failed extraction.
type Snapshotter struct {
	store  BlobStore
	hasher Hasher
	prefix string
	logger *zap.Logger
}

// NewSnapshotter builds a Snapshotter writing under prefix.
func NewSnapshotter(store BlobStore, hasher Hasher, prefix string, logger *zap.Logger) *Snapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshotter{store: store, hasher: hasher, prefix: strings.Trim(prefix, "/"), logger: logger.Named("snapshot")}
}

// Save writes doc to <prefix>/<host>/<sha256>.html and returns the store URI.
// A nil Snapshotter does nothing.
func (s *Snapshotter) Save(ctx context.Context, doc *document.Document) (string, error) {
	if s == nil || s.store == nil || doc == nil {
		return "", nil
	}
	html := []byte(doc.HTML())
	digest, err := s.hasher.Hash(html)
	if err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	host := "unknown-host"
	if u := doc.URL(); u != nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	path := fmt.Sprintf("%s/%s.html", host, digest)
	if s.prefix != "" {
		path = s.prefix + "/" + path
	}
	uri, err := s.store.PutObject(ctx, path, "text/html; charset=utf-8", bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	s.logger.Info("stored failure snapshot", zap.String("uri", uri))
	return uri, nil
}
