// Package cache is a small query cache keyed by string tuples, modeled on
// the query caches UI data layers use. It guarantees at most one in-flight
// fetch per key and lets mutations invalidate every key under a prefix.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/classmart/internal/metrics"
)

// Key identifies a cached query, most general part first:
// Key{"listings", "lamp"}.
type Key []string

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = strconv.Quote(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// FetchFunc loads the value for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	key       Key
	value     T
	fetchedAt time.Time
}

// Cache stores query results of type T.
//
// Every invalidation starts a new generation. A fetch that began in an older
// generation neither populates the cache nor is joined by callers arriving
// after the invalidation, so a read issued after a mutation always reflects
// it.
type Cache[T any] struct {
	staleTime time.Duration
	nowFunc   func() time.Time

	mu         sync.Mutex
	entries    map[string]*entry[T]
	generation uint64
	group      singleflight.Group
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithStaleTime sets how long a stored result is served without refetching.
// The default of zero refetches on every Get.
func WithStaleTime[T any](d time.Duration) Option[T] {
	return func(c *Cache[T]) {
		c.staleTime = d
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc[T any](f func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.nowFunc = f
	}
}

// New creates an empty cache.
func New[T any](opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]*entry[T]),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key when it is fresh, and otherwise
// fetches it. Concurrent Gets for the same key within a generation share one
// fetch.
//
// The shared fetch is detached from any single caller's cancellation. A
// caller whose ctx ends stops waiting and gets ctx.Err(); the fetch result is
// still stored for the others.
func (c *Cache[T]) Get(ctx context.Context, key Key, fetch FetchFunc[T]) (T, error) {
	id := key.String()

	c.mu.Lock()
	if e, ok := c.entries[id]; ok && c.fresh(e) {
		v := e.value
		c.mu.Unlock()
		metrics.CacheHitsTotal.Inc()
		return v, nil
	}
	gen := c.generation
	c.mu.Unlock()

	flightKey := strconv.FormatUint(gen, 10) + "|" + id
	detached := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		metrics.CacheMissesTotal.Inc()
		v, err := fetch(detached)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[id] = &entry[T]{key: key, value: v, fetchedAt: c.nowFunc()}
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CacheSharedTotal.Inc()
		}
		v, _ := res.Val.(T)
		return v, res.Err
	}
}

// Peek returns the stored value for key regardless of freshness.
func (c *Cache[T]) Peek(key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Invalidate drops every entry whose key starts with prefix and starts a new
// generation. It returns the number of entries dropped.
func (c *Cache[T]) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	dropped := 0
	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			delete(c.entries, id)
			dropped++
		}
	}
	metrics.CacheInvalidationsTotal.Inc()
	return dropped
}

// Len returns the number of stored entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[T]) fresh(e *entry[T]) bool {
	if c.staleTime <= 0 {
		return false
	}
	return c.nowFunc().Sub(e.fetchedAt) < c.staleTime
}
