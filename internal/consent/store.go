package consent

import (
	"context"
	"time"
)

// Store persists consent history. Append must be atomic and durable per call;
// no read-modify-write races exist because rows are never updated.
type Store interface {
	// Append writes one immutable row and returns it with its assigned ID.
	Append(ctx context.Context, record ConsentRecord) (ConsentRecord, error)

	// ListByPrincipal returns the principal's history, newest first.
	ListByPrincipal(ctx context.Context, principalName string) ([]ConsentRecord, error)

	// ListByClient returns the client's history, newest first.
	ListByClient(ctx context.Context, registeredClientID string) ([]ConsentRecord, error)

	// ListByClientAndPrincipal returns the pair's history, newest first.
	ListByClientAndPrincipal(ctx context.Context, registeredClientID, principalName string) ([]ConsentRecord, error)

	CountByPrincipal(ctx context.Context, principalName string) (int64, error)
	CountByClient(ctx context.Context, registeredClientID string) (int64, error)

	// PurgeBefore deletes rows strictly older than cutoff and reports how
	// many were removed. This is an administrative retention operation, not
	// part of the bridge protocol.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
