// Package extidp is a stand-in external identity provider used for
// development and end-to-end testing. It issues tokens through a fake login
// page and answers the identity-resolution API the bridge calls.
package extidp

import "context"

// CorrelationStore maps issued tokens to customer IDs. Entries expire; the
// store is injected so tests control time and nothing lives in package state.
type CorrelationStore interface {
	// PutToken binds a token to a customer, replacing any prior binding.
	PutToken(ctx context.Context, token, customerID string) error

	// CustomerForToken returns the bound customer or sentinel.ErrNotFound /
	// sentinel.ErrExpired.
	CustomerForToken(ctx context.Context, token string) (string, error)
}
