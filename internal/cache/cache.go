// Package cache memoizes upstream responses per request key with a
// freshness window and coalesces concurrent loads of the same key.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultStaleness is how long a loaded value is trusted without a re-fetch.
const DefaultStaleness = 5 * time.Minute

// State is the lifecycle stage of an entry.
type State string

const (
	StatePending State = "pending"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Key is a stable request signature: the operation plus its normalized argument.
type Key struct {
	Op  string
	Arg string
}

func (k Key) String() string {
	if k.Arg == "" {
		return k.Op
	}
	return k.Op + ":" + k.Arg
}

type entry struct {
	data      any
	fetchedAt time.Time
	state     State
}

// Cache is safe for concurrent use. Entries are never evicted explicitly;
// a stale entry is replaced by the next load.
type Cache struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	group     singleflight.Group
	staleness time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache with the given staleness window (DefaultStaleness if <= 0).
func New(staleness time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	c := &Cache{
		entries:   make(map[Key]*entry),
		staleness: staleness,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the fresh cached value for key, or runs loader once for
// all concurrent callers of key and caches its result. A failed load is
// returned to every waiting caller and is not cached.
func Resolve[T any](ctx context.Context, c *Cache, key Key, loader func(context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.resolve(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %s holds %T, not the requested type", key, v)
	}
	return typed, nil
}

func (c *Cache) resolve(ctx context.Context, key Key, loader func(context.Context) (any, error)) (any, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}

	v, err, shared := c.group.Do(key.String(), func() (any, error) {
		// A load that finished between the freshness check and Do is reused.
		if v, ok := c.fresh(key); ok {
			return v, nil
		}

		c.begin(key)
		// The load outlives any single caller so coalesced peers are not
		// failed by one caller's cancellation.
		v, err := loader(context.WithoutCancel(ctx))
		c.finish(key, v, err)
		return v, err
	})

	if shared {
		c.logger.Debug("coalesced cache load", zap.String("key", key.String()))
	}
	return v, err
}

func (c *Cache) fresh(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state != StateReady {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.staleness {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) begin(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.state = StatePending
}

func (c *Cache) finish(key Key, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if err != nil {
		e.state = StateFailed
		c.logger.Debug("cache load failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	e.data = v
	e.fetchedAt = c.now()
	e.state = StateReady
}

// Clear drops every entry. A load already in flight is left to finish and
// stores its result; new callers of that key join it.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*entry)
}

// ClearFailed drops failed and stale entries and reports how many were
// removed. Fresh and pending entries are kept.
func (c *Cache) ClearFailed() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		stale := e.state == StateReady && now.Sub(e.fetchedAt) >= c.staleness
		if e.state == StateFailed || stale {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// StateOf reports the state of key and whether an entry exists.
func (c *Cache) StateOf(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return e.state, true
}

// Stats summarizes the entry table.
type Stats struct {
	Entries int `json:"entries"`
	Ready   int `json:"ready"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
	Stale   int `json:"stale"`
}

// Stats counts entries by state.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Entries: len(c.entries)}
	now := c.now()
	for _, e := range c.entries {
		switch e.state {
		case StateReady:
			s.Ready++
			if now.Sub(e.fetchedAt) >= c.staleness {
				s.Stale++
			}
		case StatePending:
			s.Pending++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}
