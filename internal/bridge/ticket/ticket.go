// Package ticket implements the correlation tickets that bind a random nonce
// to the OAuth2 client that initiated an external login.
//
// A ticket is {nonce}_{clientID}. It is not a signed token: its security rests
// on the unguessability of the nonce plus the exact-match comparison the
// callback validator performs against server-held state. Verify only defends
// against a callback being replayed for the wrong client.
package ticket

import (
	"strings"

	"github.com/google/uuid"
)

// Separator joins the nonce and client ID. Client IDs containing the
// separator embed their trailing segment only: Verify splits on the last
// separator, so such IDs fail shape verification unless the expected ID
// equals that trailing segment. The exact-match check against the stored
// ticket is unaffected.
const Separator = "_"

// Issue mints a ticket bound to clientID with a fresh random nonce.
func Issue(clientID string) string {
	return uuid.NewString() + Separator + clientID
}

// Verify checks the ticket's shape: at least two segments, and the trailing
// segment equal to expectedClientID.
func Verify(tkt, expectedClientID string) bool {
	if tkt == "" || expectedClientID == "" {
		return false
	}
	parts := strings.Split(tkt, Separator)
	if len(parts) < 2 {
		return false
	}
	return parts[len(parts)-1] == expectedClientID
}
