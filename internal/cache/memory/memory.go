// Package memory is an in-process TTL cache.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JakeFAU/jobparser/internal/cache"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Cache keeps entries in a map. Expired entries are dropped when read, and
// swept when the map reaches its entry cap; if it is still full the entry
// closest to expiry is evicted.
type Cache struct {
	opts cache.Options
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	closed  bool
}

// New builds an empty in-memory cache.
func New(opts cache.Options) *Cache {
	return &Cache{
		opts:    opts,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns a copy of the value stored under key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, cache.ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, cache.ErrNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a copy of value under key.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return cache.ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.opts.Limit() {
		c.makeRoom(now)
	}
	c.entries[key] = entry{value: slices.Clone(value), expires: now.Add(c.opts.TTL(ttl))}
	return nil
}

// makeRoom frees at least one slot. Callers hold mu.
func (c *Cache) makeRoom(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.opts.Limit() {
		return
	}
	var (
		victim string
		soon   time.Time
	)
	for k, e := range c.entries {
		if victim == "" || e.expires.Before(soon) {
			victim, soon = k, e.expires
		}
	}
	delete(c.entries, victim)
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	delete(c.entries, key)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops every entry; later calls fail with ErrClosed.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
	return nil
}
