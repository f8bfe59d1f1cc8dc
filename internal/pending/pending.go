// Package pending stages items awaiting owner confirmation. Entries expire
// after a TTL so abandoned confirmations are reclaimed.
package pending

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/envelope/internal/clock"
)

// DefaultTTL is used when New is given a non-positive ttl.
const DefaultTTL = 15 * time.Minute

// Entry is one staged item.
type Entry[T any] struct {
	Token     string
	Owner     int64
	Value     T
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is a TTL-bounded, token-keyed staging area. Safe for concurrent use.
type Store[T any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]Entry[T]
}

// New creates a Store.
func New[T any](clk clock.Clock, ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[T]{clock: clk, ttl: ttl, entries: make(map[string]Entry[T])}
}

// Put stages v for owner and returns its entry.
func (s *Store[T]) Put(owner int64, v T) Entry[T] {
	now := s.clock.Now()
	e := Entry[T]{
		Token:     uuid.NewString(),
		Owner:     owner,
		Value:     v,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sweepLocked(now)
	s.entries[e.Token] = e
	s.mu.Unlock()
	return e
}

// Get returns the live entry for token if it belongs to owner.
func (s *Store[T]) Get(owner int64, token string) (Entry[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok || e.Owner != owner || !s.clock.Now().Before(e.ExpiresAt) {
		return Entry[T]{}, false
	}
	return e, true
}

// Take removes and returns the live entry for token if it belongs to owner.
func (s *Store[T]) Take(owner int64, token string) (Entry[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok || e.Owner != owner {
		return Entry[T]{}, false
	}
	delete(s.entries, token)
	if !s.clock.Now().Before(e.ExpiresAt) {
		return Entry[T]{}, false
	}
	return e, true
}

// Restore puts back an entry returned by Take, under the same token and
// expiry. It reports false when the entry has expired meanwhile or its
// token is in use again.
func (s *Store[T]) Restore(e Entry[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.entries[e.Token]; taken || !s.clock.Now().Before(e.ExpiresAt) {
		return false
	}
	s.entries[e.Token] = e
	return true
}

// List returns the owner's live entries, oldest first.
func (s *Store[T]) List(owner int64) []Entry[T] {
	now := s.clock.Now()
	s.mu.Lock()
	var out []Entry[T]
	for _, e := range s.entries {
		if e.Owner == owner && now.Before(e.ExpiresAt) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// Sweep drops expired entries and returns how many were dropped.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.clock.Now())
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[T]) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}
