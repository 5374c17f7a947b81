package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrFull is returned by Put when the store holds its maximum number of
// live sessions.
var ErrFull = errors.New("too many active sessions")

// Option customizes a MemoryStore.
type Option func(*options)

type options struct {
	ttl time.Duration
	max int
	now func() time.Time
}

// WithTTL expires a session that has not been read or written for d.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(o *options) { o.max = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type item[T any] struct {
	v    T
	seen time.Time
}

// MemoryStore keeps sessions in process memory. Zero TTL or max means no
// expiry or no cap.
type MemoryStore[T any] struct {
	mu   sync.Mutex
	m    map[string]*item[T]
	opts options
}

func NewMemoryStore[T any](opts ...Option) *MemoryStore[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[T]{m: map[string]*item[T]{}, opts: o}
}

// Get returns the session and marks it as used.
func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	it, ok := s.m[id]
	if !ok {
		return zero, false, nil
	}
	now := s.opts.now()
	if s.expired(it, now) {
		delete(s.m, id)
		return zero, false, nil
	}
	it.seen = now
	return it.v, true, nil
}

// Put stores v under id. A new id is rejected with ErrFull once the cap is
// reached and no session has expired.
func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	if it, ok := s.m[id]; ok {
		it.v = v
		it.seen = now
		return nil
	}
	if s.opts.max > 0 && len(s.m) >= s.opts.max {
		s.sweep(now)
		if len(s.m) >= s.opts.max {
			return ErrFull
		}
	}
	s.m[id] = &item[T]{v: v, seen: now}
	return nil
}

// Delete reports whether id was present.
func (s *MemoryStore[T]) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.m[id]
	delete(s.m, id)
	return ok && !s.expired(it, s.opts.now()), nil
}

// Len counts live sessions.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(s.opts.now())
	return len(s.m)
}

func (s *MemoryStore[T]) NewID() string {
	return uuid.NewString()
}

func (s *MemoryStore[T]) expired(it *item[T], now time.Time) bool {
	return s.opts.ttl > 0 && now.Sub(it.seen) >= s.opts.ttl
}

func (s *MemoryStore[T]) sweep(now time.Time) {
	for id, it := range s.m {
		if s.expired(it, now) {
			delete(s.m, id)
		}
	}
}
