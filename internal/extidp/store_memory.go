package extidp

import (
	"context"
	"sync"
	"time"

	"authbridge/pkg/platform/sentinel"
)

type entry struct {
	customerID string
	expiresAt  time.Time
}

// InMemoryStore is a CorrelationStore with per-entry expiry. Expired entries
// are dropped lazily on read.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the store's clock for tests.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) PutToken(_ context.Context, token, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = entry{customerID: customerID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *InMemoryStore) CustomerForToken(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, token)
		return "", sentinel.ErrExpired
	}
	return e.customerID, nil
}
