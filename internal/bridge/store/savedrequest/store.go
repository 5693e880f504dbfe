// Package savedrequest is the original-request suspension store: it captures
// an in-flight authorize request keyed by browser session so the bridge can
// replay it after the external handshake completes.
package savedrequest

import (
	"context"

	"authbridge/internal/bridge/models"
)

// Store captures and replays suspended requests. The bridge treats it as
// get/put/remove; it holds at most one request per browser session.
type Store interface {
	Save(ctx context.Context, sid string, req models.SavedRequest) error

	// Get returns the suspended request or sentinel.ErrNotFound. The store
	// may legitimately be empty (restart, eviction) while the authorization
	// parameters are still known from the pending context.
	Get(ctx context.Context, sid string) (models.SavedRequest, error)

	// Remove drops the suspended request. Removing a missing one is a no-op.
	Remove(ctx context.Context, sid string) error
}
