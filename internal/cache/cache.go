// Package cache defines the byte cache used to memoize parse results.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key is absent or expired.
	ErrNotFound = errors.New("key not found in cache")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cache is closed")
	// ErrInvalidKey rejects empty keys.
	ErrInvalidKey = errors.New("invalid cache key")
)

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = time.Hour

// DefaultMaxEntries bounds in-process caches when Options.MaxEntries is unset.
const DefaultMaxEntries = 10000

// Cache stores opaque values with a time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options configures cache backends.
type Options struct {
	DefaultTTL    time.Duration
	MaxEntries    int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TTL resolves the effective ttl for a Set call.
func (o Options) TTL(ttl time.Duration) time.Duration {
	switch {
	case ttl > 0:
		return ttl
	case o.DefaultTTL > 0:
		return o.DefaultTTL
	default:
		return DefaultTTL
	}
}

// Limit resolves the in-process entry cap.
func (o Options) Limit() int {
	if o.MaxEntries > 0 {
		return o.MaxEntries
	}
	return DefaultMaxEntries
}
