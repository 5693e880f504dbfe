package pending

import (
	"context"
	"sync"
	"time"

	"authbridge/internal/bridge/models"
	"authbridge/pkg/platform/sentinel"
)

type entry struct {
	pctx      models.PendingAuthContext
	expiresAt time.Time
}

// InMemoryStore keeps pending contexts in a mutex-guarded map with lazy
// per-entry expiry. Suitable for single-instance deployments and tests.
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

func (s *InMemoryStore) Put(_ context.Context, sid string, pctx models.PendingAuthContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = entry{pctx: pctx, expiresAt: s.deadline()}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sid string) (models.PendingAuthContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sid]
	if !ok {
		return models.PendingAuthContext{}, sentinel.ErrNotFound
	}
	if s.expired(e) {
		delete(s.entries, sid)
		return models.PendingAuthContext{}, sentinel.ErrExpired
	}
	return e.pctx, nil
}

func (s *InMemoryStore) ClearTicket(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sid]
	if !ok || s.expired(e) {
		return nil
	}
	e.pctx.SessionTicket = ""
	s.entries[sid] = e
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}

func (s *InMemoryStore) deadline() time.Time {
	if s.ttl == 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *InMemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
