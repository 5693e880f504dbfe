// Package service applies consent policy on top of the history store. The
// ledger records every grant, but whether past grants satisfy a new
// authorization request is a policy decision made here.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"authbridge/internal/consent"
	"authbridge/pkg/requestcontext"
)

var consentRecords = promauto.NewCounter(prometheus.CounterOpts{
	Name: "authbridge_consent_records_total",
	Help: "Total consent grants appended to the history ledger.",
})

// LookupPolicy decides whether stored history can satisfy a consent check.
type LookupPolicy int

const (
	// AlwaysReconsent ignores history on lookup: every authorization run
	// presents the consent page again. History still accumulates.
	AlwaysReconsent LookupPolicy = iota

	// UseHistory satisfies a lookup from the most recent grant for the
	// client/principal pair.
	UseHistory
)

// EventMirror receives a copy of each appended record on a best-effort basis.
type EventMirror interface {
	Publish(ctx context.Context, record consent.ConsentRecord) error
}

type Service struct {
	store  consent.Store
	mirror EventMirror
	policy LookupPolicy
	logger *slog.Logger
}

func New(store consent.Store, mirror EventMirror, policy LookupPolicy, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		mirror: mirror,
		policy: policy,
		logger: logger,
	}
}

// Record appends a grant to the ledger. Repeated grants for the same pair are
// expected and produce additional rows; there is no uniqueness constraint.
// Mirror failures are logged and swallowed: the ledger row is the source of
// truth.
func (s *Service) Record(ctx context.Context, registeredClientID, principalName string, scopes []string) (consent.ConsentRecord, error) {
	record := consent.ConsentRecord{
		RegisteredClientID: registeredClientID,
		PrincipalName:      principalName,
		Scopes:             strings.Join(scopes, " "),
		ConsentTime:        requestcontext.Now(ctx),
	}

	stored, err := s.store.Append(ctx, record)
	if err != nil {
		return consent.ConsentRecord{}, err
	}
	consentRecords.Inc()

	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, stored); err != nil {
			s.logger.WarnContext(ctx, "consent mirror publish failed",
				"error", err.Error(),
				"record_id", stored.ID,
			)
		}
	}

	s.logger.InfoContext(ctx, "consent recorded",
		"client_id", registeredClientID,
		"record_id", stored.ID,
	)
	return stored, nil
}

// Lookup reports whether an existing grant satisfies the pair. Under
// AlwaysReconsent it never does, regardless of history.
func (s *Service) Lookup(ctx context.Context, registeredClientID, principalName string) (*consent.ConsentRecord, error) {
	if s.policy == AlwaysReconsent {
		return nil, nil
	}
	records, err := s.store.ListByClientAndPrincipal(ctx, registeredClientID, principalName)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Remove is intentionally a no-op. Revoking consent does not erase the fact
// that it was once granted; the ledger keeps the row.
func (s *Service) Remove(ctx context.Context, registeredClientID, principalName string) error {
	s.logger.InfoContext(ctx, "consent removal requested, ledger retained",
		"client_id", registeredClientID,
	)
	return nil
}

func (s *Service) HistoryByPrincipal(ctx context.Context, principalName string) ([]consent.ConsentRecord, error) {
	return s.store.ListByPrincipal(ctx, principalName)
}

func (s *Service) HistoryByClient(ctx context.Context, registeredClientID string) ([]consent.ConsentRecord, error) {
	return s.store.ListByClient(ctx, registeredClientID)
}

func (s *Service) HistoryByClientAndPrincipal(ctx context.Context, registeredClientID, principalName string) ([]consent.ConsentRecord, error) {
	return s.store.ListByClientAndPrincipal(ctx, registeredClientID, principalName)
}

func (s *Service) CountByPrincipal(ctx context.Context, principalName string) (int64, error) {
	return s.store.CountByPrincipal(ctx, principalName)
}

func (s *Service) CountByClient(ctx context.Context, registeredClientID string) (int64, error) {
	return s.store.CountByClient(ctx, registeredClientID)
}

// PurgeBefore applies a retention cutoff to the ledger.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "consent history purged",
			"removed", removed,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return removed, nil
}
