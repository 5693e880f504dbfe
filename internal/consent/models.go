// Package consent is the append-only audit ledger of granted authorization
// consents. Rows are immutable once written and are never read back by the
// bridge protocol itself; only administrative and reporting paths query them.
package consent

import (
	"strings"
	"time"
)

// ConsentRecord is one granted consent. Created exactly once per consent
// event, never updated, never deleted by ordinary flow.
type ConsentRecord struct {
	ID                 int64     `json:"id"`
	RegisteredClientID string    `json:"registered_client_id"`
	PrincipalName      string    `json:"principal_name"`
	// Scopes is space-separated, order-preserving as granted.
	Scopes      string    `json:"scopes"`
	ConsentTime time.Time `json:"consent_time"`
}

// ScopeList splits the stored scopes back into their granted order.
func (c ConsentRecord) ScopeList() []string {
	if c.Scopes == "" {
		return nil
	}
	return strings.Fields(c.Scopes)
}
