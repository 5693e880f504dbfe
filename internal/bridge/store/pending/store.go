// Package pending stores the per-browser-session PendingAuthContext while an
// authorization is parked behind the external login redirect.
package pending

import (
	"context"

	"authbridge/internal/bridge/models"
)

// Store is a keyed store with explicit expiry, injected into the bridge
// rather than held as process-wide state. Keys are browser session IDs.
type Store interface {
	// Put stores the context, overwriting any prior pending flow for the
	// session (last-initiator-wins).
	Put(ctx context.Context, sid string, pctx models.PendingAuthContext) error

	// Get returns the context or sentinel.ErrNotFound / sentinel.ErrExpired.
	Get(ctx context.Context, sid string) (models.PendingAuthContext, error)

	// ClearTicket consumes the session ticket, leaving the rest of the
	// context in place for the authorize-URL rebuild. Clearing a missing
	// session is a no-op.
	ClearTicket(ctx context.Context, sid string) error

	// Delete removes the whole context. Deleting a missing session is a no-op.
	Delete(ctx context.Context, sid string) error
}
