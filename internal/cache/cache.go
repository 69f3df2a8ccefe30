// Package cache keeps fetched collections keyed by their query so many
// readers share one copy. Writers invalidate keys; the next read refetches.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"diligence-tracker/internal/logger"
)

// State describes a cached query at a point in time.
type State struct {
	Loading   bool
	HasData   bool
	Err       error
	FetchedAt time.Time
}

type entry struct {
	data      any
	err       error
	fetchedAt time.Time
}

type call struct {
	done chan struct{}
	data any
	err  error
}

// QueryCache caches query results. Concurrent loads of the same key share one
// fetch. Errors are remembered for State but never served as data.
type QueryCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]entry
	inflight map[string]*call
	gens     map[string]uint64
}

// New returns a cache. A zero ttl keeps entries until invalidated.
func New(ttl time.Duration) *QueryCache {
	return &QueryCache{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]entry),
		inflight: make(map[string]*call),
		gens:     make(map[string]uint64),
	}
}

// Load returns the cached value for key or runs fetch to fill it.
func Load[T any](ctx context.Context, c *QueryCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.load(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

func (c *QueryCache) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.err == nil && c.fresh(e) {
		c.mu.Unlock()
		return e.data, nil
	}
	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.data, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	gen := c.gens[key]
	c.mu.Unlock()

	logger.Debug("cache miss %s", key)
	cl.data, cl.err = fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	// A fetch that raced with Invalidate may hold stale rows; hand it to the
	// waiting callers but do not keep it.
	if c.gens[key] == gen {
		c.entries[key] = entry{data: cl.data, err: cl.err, fetchedAt: c.now()}
	}
	c.mu.Unlock()
	close(cl.done)
	return cl.data, cl.err
}

func (c *QueryCache) fresh(e entry) bool {
	return c.ttl <= 0 || c.now().Sub(e.fetchedAt) < c.ttl
}

// Invalidate drops every key starting with prefix.
func (c *QueryCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	for key := range c.inflight {
		if strings.HasPrefix(key, prefix) {
			c.gens[key]++
		}
	}
	logger.Debug("cache invalidate %s", prefix)
}

// State reports loading, error and data presence for key.
func (c *QueryCache) State(key string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	_, loading := c.inflight[key]
	return State{
		Loading:   loading,
		HasData:   ok && e.err == nil,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
	}
}
