package consent

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps consent history in an append-only slice. Suitable for
// tests and single-instance development setups.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []ConsentRecord
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, record ConsentRecord) (ConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = s.nextID
	s.nextID++
	s.records = append(s.records, record)
	return record, nil
}

func (s *InMemoryStore) ListByPrincipal(_ context.Context, principalName string) ([]ConsentRecord, error) {
	return s.filter(func(r ConsentRecord) bool { return r.PrincipalName == principalName }), nil
}

func (s *InMemoryStore) ListByClient(_ context.Context, registeredClientID string) ([]ConsentRecord, error) {
	return s.filter(func(r ConsentRecord) bool { return r.RegisteredClientID == registeredClientID }), nil
}

func (s *InMemoryStore) ListByClientAndPrincipal(_ context.Context, registeredClientID, principalName string) ([]ConsentRecord, error) {
	return s.filter(func(r ConsentRecord) bool {
		return r.RegisteredClientID == registeredClientID && r.PrincipalName == principalName
	}), nil
}

func (s *InMemoryStore) CountByPrincipal(_ context.Context, principalName string) (int64, error) {
	return int64(len(s.filter(func(r ConsentRecord) bool { return r.PrincipalName == principalName }))), nil
}

func (s *InMemoryStore) CountByClient(_ context.Context, registeredClientID string) (int64, error) {
	return int64(len(s.filter(func(r ConsentRecord) bool { return r.RegisteredClientID == registeredClientID }))), nil
}

func (s *InMemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.ConsentTime.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// filter returns matching records newest first. Records are appended in
// chronological order, so reverse iteration suffices.
func (s *InMemoryStore) filter(match func(ConsentRecord) bool) []ConsentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ConsentRecord{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if match(s.records[i]) {
			out = append(out, s.records[i])
		}
	}
	return out
}
