// Package expiring provides a process-local key/value map whose entries
// expire a fixed duration after insertion.
package expiring

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store keeps each value for a fixed TTL measured from its last Set.
// Reads never extend the lifetime of an entry. Expired entries are removed
// lazily on Get and in bulk by DeleteExpired.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]entry[V]
}

// Option configures a Store.
type Option[K comparable, V any] func(*Store[K, V])

// WithClock overrides the clock used to stamp and check entries.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(s *Store[K, V]) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an empty store with the given TTL.
func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *Store[K, V] {
	s := &Store[K, V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]entry[V]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the lifetime assigned to every entry.
func (s *Store[K, V]) TTL() time.Duration {
	return s.ttl
}

// Set stores value under key, replacing any previous entry and restarting its TTL.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
}

// Get returns the value for key. ok is false when the key is absent or expired.
func (s *Store[K, V]) Get(key K) (value V, ok bool) {
	s.mu.RLock()
	e, found := s.entries[key]
	s.mu.RUnlock()
	if !found {
		return value, false
	}
	if s.expired(e, s.now()) {
		s.deleteIfStale(key)
		return value, false
	}
	return e.value, true
}

// Take returns the value for key and removes it in the same critical section,
// so at most one caller ever observes a given entry.
func (s *Store[K, V]) Take(key K) (value V, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[key]
	if !found {
		return value, false
	}
	delete(s.entries, key)
	if s.expired(e, s.now()) {
		return value, false
	}
	return e.value, true
}

// SetIfAbsent stores value only when key has no live entry. It reports whether
// the value was stored.
func (s *Store[K, V]) SetIfAbsent(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, found := s.entries[key]; found && !s.expired(e, now) {
		return false
	}
	s.entries[key] = entry[V]{value: value, expiresAt: now.Add(s.ttl)}
	return true
}

// Replace overwrites the value of a live entry and keeps its original
// deadline. It reports false, storing nothing, when key is absent or expired.
func (s *Store[K, V]) Replace(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[key]
	if !found {
		return false
	}
	if s.expired(e, s.now()) {
		delete(s.entries, key)
		return false
	}
	s.entries[key] = entry[V]{value: value, expiresAt: e.expiresAt}
	return true
}

// Delete removes key immediately.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// DeleteExpired removes every entry that has expired as of now and returns
// how many were removed. The time is injected for testability.
func (s *Store[K, V]) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[K, V]) expired(e entry[V], now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// deleteIfStale re-checks under the write lock so a concurrent Set is not lost.
func (s *Store[K, V]) deleteIfStale(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, found := s.entries[key]; found && s.expired(e, s.now()) {
		delete(s.entries, key)
	}
}
