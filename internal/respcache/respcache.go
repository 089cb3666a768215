// Package respcache is the server-side response cache: keyed payloads with
// LRU eviction and on-demand invalidation only. There is no TTL; entries
// stay valid until a mutation invalidates their collection's keys.
package respcache

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds the cache before LRU eviction kicks in.
const DefaultMaxEntries = 200

// Hooks receive cache events, typically to drive metrics counters.
type Hooks struct {
	OnHit   func(key string)
	OnMiss  func(key string)
	OnStore func(key string)
	OnEvict func(key string)
}

type entry struct {
	value any
}

// Cache is a keyed response cache. Concurrent loads for the same key are
// collapsed into one loader call.
type Cache struct {
	mu         sync.Mutex
	items      map[string]*entry
	order      []string // LRU order, oldest first
	maxEntries int
	hooks      Hooks
	flight     singleflight.Group
}

// New builds a cache with the given capacity; maxEntries <= 0 uses the
// default.
func New(maxEntries int, hooks Hooks) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		items:      make(map[string]*entry),
		order:      make([]string, 0, 64),
		maxEntries: maxEntries,
		hooks:      hooks,
	}
}

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) (any, error)

// Get returns the cached value for key, moving it to the most recently used
// position.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		if c.hooks.OnMiss != nil {
			c.hooks.OnMiss(key)
		}
		return nil, false
	}
	c.touchLocked(key)
	if c.hooks.OnHit != nil {
		c.hooks.OnHit(key)
	}
	return e.value, true
}

// Set stores a value with LRU eviction when the cache is over capacity.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

func (c *Cache) setLocked(key string, value any) {
	if _, exists := c.items[key]; exists {
		c.touchLocked(key)
		c.items[key].value = value
		return
	}

	c.items[key] = &entry{value: value}
	c.order = append(c.order, key)
	if c.hooks.OnStore != nil {
		c.hooks.OnStore(key)
	}

	for len(c.items) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
		if c.hooks.OnEvict != nil {
			c.hooks.OnEvict(oldest)
		}
	}
}

// GetOrLoad returns the cached value or runs loader exactly once across
// concurrent callers for the same key, caching its result.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader Loader) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// Another caller may have stored the value while we queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// InvalidateByPattern drops every key containing pattern as a substring,
// e.g. all cached product pages after a product mutation.
func (c *Cache) InvalidateByPattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.Contains(key, pattern) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry)
	c.order = c.order[:0]
}

// Stats reports the current size and resident keys for debugging.
func (c *Cache) Stats() (size int, keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items), append([]string(nil), c.order...)
}

func (c *Cache) removeLocked(key string) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// touchLocked moves key to the most recently used position.
func (c *Cache) touchLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}
