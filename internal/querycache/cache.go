// Package querycache is a read-through cache for upstream lookups, keyed by
// logical resource ("claim:412", "offer:412", "claims:<session>"). Identical
// in-flight loads are collapsed into one upstream call; mutations publish
// invalidations on a subscription bus keyed the same way. There is no
// polling: entries live until their TTL lapses or a mutation invalidates them.
package querycache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value   any
	expires time.Time
}

// Cache caches loader results per key.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func(key string)
}

// New constructs a Cache with the given entry TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
		subs:    make(map[int]func(string)),
	}
}

// Get returns the cached value for key, or runs load exactly once per key to
// fill it even when many callers arrive concurrently.
func (c *Cache) Get(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return e.value, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Recheck under the flight: a concurrent caller may have filled it.
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Before(e.expires) {
			return e.value, nil
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{value: value, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return value, nil
	})
	return v, err
}

// Invalidate drops the given keys and notifies every subscriber. Mutation
// handlers call it on success so the next read refetches.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.subMu.RLock()
	subs := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.RUnlock()
	for _, fn := range subs {
		for _, key := range keys {
			fn(key)
		}
	}
}

// Subscribe registers fn to run on every invalidation and returns an
// unsubscribe func. fn runs synchronously on the invalidating goroutine.
func (c *Cache) Subscribe(fn func(key string)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
