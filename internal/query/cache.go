// Package query implements the client-side cache between the CLI and
// the network: staleness-window reads, mutation-driven invalidation,
// and the typeahead debouncer. It is the only layer with policy; the
// services below it are stateless and the views above it are dumb.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ErrSkipped is returned when a query is skipped because a required
// parameter (typically an id) is empty. No network call is made and
// nothing is cached.
var ErrSkipped = errors.New("query skipped: required parameter is empty")

const (
	defaultSize = 512
	// maxEntryAge bounds how long an unused entry survives at all;
	// staleness windows are enforced separately per read.
	maxEntryAge = 30 * time.Minute
)

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache is a process-wide slot store. Entries live in a bounded
// expirable LRU; a stale entry is refetched on the next read but stays
// available until then.
type Cache struct {
	mu    sync.Mutex
	slots *expirable.LRU[Key, *entry]
	group singleflight.Group

	// Now is swappable for tests.
	Now func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		slots: expirable.NewLRU[Key, *entry](defaultSize, nil, maxEntryAge),
		Now:   time.Now,
	}
}

// Fetch returns the cached value for key while it is fresh within
// window, otherwise runs fn and caches its result. Concurrent fetches
// of the same key share one in-flight call; beyond that there is no
// request deduplication.
func Fetch[T any](ctx context.Context, c *Cache, key Key, window time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.fresh(key, window); ok {
		typed, ok := v.(T)
		if ok {
			return typed, nil
		}
		// Slot collision across types; fall through to refetch.
	}
	v, err, _ := c.group.Do(string(key), func() (any, error) {
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, out)
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) fresh(key Key, window time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.slots.Get(key)
	if !ok || e.stale {
		return nil, false
	}
	if c.Now().Sub(e.fetchedAt) >= window {
		return nil, false
	}
	return e.value, true
}

// Put writes a value into a slot and marks it fresh. Mutations use it
// to install their response payload in the detail slot directly,
// avoiding a redundant refetch.
func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots.Add(key, &entry{value: value, fetchedAt: c.Now()})
}

// Peek returns the cached value regardless of staleness.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.slots.Get(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Evict drops a slot outright (deletions).
func (c *Cache) Evict(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots.Remove(key)
}

// InvalidateLists marks every list slot of resource stale, whatever its
// filter. Filters cannot be introspected client-side, so the blast
// radius is the whole resource, matching the invariant that no list may
// miss a change beyond one forced refetch.
func (c *Cache) InvalidateLists(resource string) {
	prefix := listPrefix(resource)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.slots.Keys() {
		if !strings.HasPrefix(string(k), prefix) {
			continue
		}
		if e, ok := c.slots.Peek(k); ok {
			e.stale = true
		}
	}
}

// InvalidateResource marks every slot of resource stale, lists and
// details alike.
func (c *Cache) InvalidateResource(resource string) {
	prefix := resource + "/"
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.slots.Keys() {
		if !strings.HasPrefix(string(k), prefix) {
			continue
		}
		if e, ok := c.slots.Peek(k); ok {
			e.stale = true
		}
	}
}

// InvalidateAll flushes everything. Sign-out and organization switch
// use this: nearly all cached data is organization-scoped, so a scoped
// invalidation would save nothing.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots.Purge()
}

// Len reports the number of live slots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.Len()
}
