// Package listcache is a small read-through cache for list queries. Writers
// invalidate by key prefix after a successful mutation, the way the app's
// query layer invalidates its feed and profile lists.
package listcache

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a keyed read-through cache over an LRU. V is the cached value
// type; one Cache serves one query family.
type Cache[V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[string, V]
}

func New[V any](size int) (*Cache[V], error) {
	l, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lru: l}, nil
}

// GetOrLoad returns the cached value for key, loading and caching it on a
// miss. Load errors are returned without caching, so the next read retries.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	c.lru.Add(key, v)
	return v, nil
}

// Invalidate drops one key.
func (c *Cache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

// InvalidatePrefix drops every key starting with prefix. Keys() is a
// snapshot, so removal during iteration needs the extra lock only to keep
// concurrent invalidations from interleaving.
func (c *Cache[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
