// Package cache provides a typed in-memory TTL cache on top of
// patrickmn/go-cache. It backs the access token store and the optional
// report result cache.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NoExpiration marks an entry that never expires.
const NoExpiration = gocache.NoExpiration

// Cache is a TTL cache holding values of a single type.
type Cache[V any] struct {
	store *gocache.Cache
}

// New creates a cache with the given default TTL and cleanup interval.
// A zero cleanup interval disables the janitor goroutine.
func New[V any](defaultTTL, cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, found := c.store.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	return typed, ok
}

// GetWithExpiration returns the value and its expiry. The time is zero for
// entries set with NoExpiration.
func (c *Cache[V]) GetWithExpiration(key string) (V, time.Time, bool) {
	v, exp, found := c.store.GetWithExpiration(key)
	if !found {
		var zero V
		return zero, time.Time{}, false
	}
	typed, ok := v.(V)
	return typed, exp, ok
}

// Set stores a value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Delete removes a value.
func (c *Cache[V]) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all items.
func (c *Cache[V]) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items, including expired ones not yet cleaned up.
func (c *Cache[V]) ItemCount() int {
	return c.store.ItemCount()
}
