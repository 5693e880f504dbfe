package securitycontext

import (
	"context"
	"sync"
	"time"

	"authbridge/internal/bridge/models"
	"authbridge/pkg/platform/sentinel"
)

type entry struct {
	principal models.Principal
	expiresAt time.Time
}

// InMemoryStore keeps principals in a mutex-guarded map with lazy per-entry
// expiry tied to the browser session lifetime.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryStore creates a store whose entries expire after ttl.
// A zero ttl disables expiry.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *InMemoryStore) Establish(_ context.Context, sid string, principal models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deadline time.Time
	if s.ttl != 0 {
		deadline = s.now().Add(s.ttl)
	}
	s.entries[sid] = entry{principal: principal, expiresAt: deadline}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sid string) (models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sid]
	if !ok {
		return models.Principal{}, sentinel.ErrNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, sid)
		return models.Principal{}, sentinel.ErrNotFound
	}
	return e.principal, nil
}

func (s *InMemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}
