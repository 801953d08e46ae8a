// Package cache provides a typed TTL cache layered over a fast in-memory
// tier and the durable key-value store, so cached results survive restarts.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"sentinela/internal/kvstore"
	"sentinela/internal/logger"
)

// Entry wraps a cached value with its storage time so TTL can be enforced
// on reads regardless of which tier served the entry.
type Entry[T any] struct {
	Key      string    `json:"key"`
	Value    T         `json:"value"`
	StoredAt time.Time `json:"storedAt"`
}

// Cache is a read-through TTL cache for values of type T within one
// kvstore namespace.
type Cache[T any] struct {
	store  kvstore.Store
	ns     kvstore.Namespace
	ttl    time.Duration
	memory *gocache.Cache
}

// New creates a cache for namespace ns with the given TTL.
func New[T any](store kvstore.Store, ns kvstore.Namespace, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		store:  store,
		ns:     ns,
		ttl:    ttl,
		memory: gocache.New(ttl, 2*ttl),
	}
}

// Key builds a cache key from its parts.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Get returns the cached value for key if present and fresh. The second
// return is false on a miss or an expired entry.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	if v, ok := c.memory.Get(key); ok {
		entry := v.(Entry[T])
		if time.Since(entry.StoredAt) < c.ttl {
			return entry.Value, true
		}
		c.memory.Delete(key)
	}

	raw, err := c.store.Get(ctx, c.ns, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("cache read failed", "namespace", string(c.ns), "key", key, "error", err.Error())
		}
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(raw, &entry); err != nil {
		logger.Warn("discarding corrupt cache entry", "namespace", string(c.ns), "key", key)
		_ = c.store.Delete(ctx, c.ns, key)
		return zero, false
	}

	if time.Since(entry.StoredAt) >= c.ttl {
		_ = c.store.Delete(ctx, c.ns, key)
		return zero, false
	}

	c.memory.Set(key, entry, gocache.DefaultExpiration)
	return entry.Value, true
}

// Set stores value under key in both tiers.
func (c *Cache[T]) Set(ctx context.Context, key string, value T) error {
	entry := Entry[T]{Key: key, Value: value, StoredAt: time.Now().UTC()}

	c.memory.Set(key, entry, gocache.DefaultExpiration)

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s/%s: %w", c.ns, key, err)
	}
	return c.store.Set(ctx, c.ns, key, raw)
}

// Invalidate removes key from both tiers.
func (c *Cache[T]) Invalidate(ctx context.Context, key string) {
	c.memory.Delete(key)
	if err := c.store.Delete(ctx, c.ns, key); err != nil {
		logger.Warn("cache invalidation failed", "namespace", string(c.ns), "key", key, "error", err.Error())
	}
}
