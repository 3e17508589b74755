// Package query is the keyed read-through cache over the request facade.
// Concurrent reads of one key coalesce into a single fetch, stale data
// stays visible while a refresh is in flight, and mutations invalidate the
// cache keys that depend on them.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusFresh   Status = "fresh"
	StatusStale   Status = "stale"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

const (
	defaultStaleAfter = 5 * time.Minute
	defaultRetention  = 30 * time.Minute
)

// Producer fetches the data for a cache key, typically by calling the
// request facade.
type Producer func(ctx context.Context) (any, error)

type entry struct {
	data       any
	hasData    bool
	err        error
	status     Status
	generation uint64
	fetchedAt  time.Time
	accessedAt time.Time
}

// Cache is the process-wide query cache. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	group      singleflight.Group
	staleAfter time.Duration
	retention  time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithStaleAfter sets the window during which a fetched entry is served
// without refetching.
func WithStaleAfter(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.staleAfter = d
	}
}

// WithRetention sets how long an unread entry is kept before eviction.
func WithRetention(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.retention = d
	}
}

// WithNowFunc sets the clock (for tests).
func WithNowFunc(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger(log zerolog.Logger) CacheOption {
	return func(c *Cache) {
		c.log = log
	}
}

// NewCache creates a Cache with the documented defaults: 5 minute
// staleness window, 30 minute retention, no automatic retry.
func NewCache(options ...CacheOption) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		staleAfter: defaultStaleAfter,
		retention:  defaultRetention,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Get returns the data for key. A fresh entry is served from memory with
// no fetch. A stale or absent entry triggers exactly one producer call,
// shared by every concurrent Get of the same key. A failed refresh falls
// back to the previously cached data when any exists.
func (c *Cache) Get(ctx context.Context, key string, producer Producer) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	now := c.now()
	if ok && c.expired(e, now) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		e = &entry{status: StatusLoading}
		c.entries[key] = e
	}
	e.accessedAt = now

	if e.status == StatusFresh && now.Sub(e.fetchedAt) < c.staleAfter {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}

	generation := e.generation
	if e.hasData {
		e.status = StatusStale
	} else {
		e.status = StatusLoading
	}
	c.mu.Unlock()

	data, err, shared := c.group.Do(key, func() (any, error) {
		return producer(ctx)
	})
	if shared {
		c.log.Debug().Str("key", key).Msg("fetch coalesced with in-flight request")
	}

	return c.apply(key, generation, data, err)
}

// apply folds a completed fetch back into the cache. A fetch whose
// generation was superseded by an invalidation must not overwrite the
// newer state; its result is still handed to the caller that waited on it.
func (c *Cache) apply(key string, generation uint64, data any, err error) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	current := ok && e.generation == generation

	if err != nil {
		if ok && e.hasData {
			// Stale-while-revalidate: keep serving what we had. The entry
			// stays stale so StatusOf reflects the failed refresh.
			if current {
				e.status = StatusStale
			}
			return e.data, nil
		}
		if current {
			e.status = StatusError
			e.err = err
		}
		return nil, errors.Wrapf(err, "[Get] fetching %q", key)
	}

	if current {
		e.data = data
		e.hasData = true
		e.err = nil
		e.status = StatusFresh
		e.fetchedAt = c.now()
	}
	return data, nil
}

// Invalidate marks the given keys stale so their next read refetches.
// Unknown keys are ignored.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			c.markStale(key, e)
		}
	}
}

// InvalidateAll marks every entry stale. Bound to the focus/reconnect
// signals so regained visibility or connectivity refreshes the next reads.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		c.markStale(key, e)
	}
}

// markStale also forgets any in-flight fetch for the key: a read issued
// after the invalidation must start its own flight rather than join one
// that began before it and would hand back pre-invalidation data.
func (c *Cache) markStale(key string, e *entry) {
	e.generation++
	e.fetchedAt = time.Time{}
	if e.status == StatusFresh {
		e.status = StatusStale
	}
	c.group.Forget(key)
}

// StatusOf reports the lifecycle state of a key, with ok=false for keys
// the cache has never seen (or has evicted).
func (c *Cache) StatusOf(key string) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return e.status, true
}

// Prune evicts every entry unread for the retention window.
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) expired(e *entry, now time.Time) bool {
	return now.Sub(e.accessedAt) > c.retention
}

// Fetch is the typed read over a Cache. The producer's result is stored
// as-is, so every caller of a key must use the same T.
func Fetch[T any](ctx context.Context, c *Cache, key string, producer func(ctx context.Context) (T, error)) (T, error) {
	data, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := data.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("[Fetch] cache entry %q holds %T, not the requested type", key, data)
	}
	return typed, nil
}
