// Package securitycontext persists the authenticated principal associated
// with a browser session after a successful external handshake.
package securitycontext

import (
	"context"

	"authbridge/internal/bridge/models"
)

// Store binds principals to browser sessions. Each session's state is mutated
// only by requests carrying that session's identifier.
type Store interface {
	// Establish persists the principal, replacing any prior one.
	Establish(ctx context.Context, sid string, principal models.Principal) error

	// Get returns the principal or sentinel.ErrNotFound.
	Get(ctx context.Context, sid string) (models.Principal, error)

	// Clear removes the principal. Clearing a missing session is a no-op.
	Clear(ctx context.Context, sid string) error
}
