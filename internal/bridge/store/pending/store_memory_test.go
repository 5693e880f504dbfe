package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authbridge/internal/bridge/models"
	"authbridge/pkg/platform/sentinel"
)

func testContext() models.PendingAuthContext {
	return models.PendingAuthContext{
		ClientID:      "demo-client",
		RedirectURI:   "https://client.example/cb",
		Scope:         "openid profile",
		State:         "xyz",
		SessionTicket: "nonce_demo-client",
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(time.Minute)

	require.NoError(t, store.Put(ctx, "sid-1", testContext()))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, testContext(), got)
}

func TestGetMissingSession(t *testing.T) {
	store := NewInMemoryStore(time.Minute)

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPutOverwritesPriorFlow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(time.Minute)

	first := testContext()
	require.NoError(t, store.Put(ctx, "sid-1", first))

	second := testContext()
	second.ClientID = "other-client"
	second.SessionTicket = "nonce2_other-client"
	require.NoError(t, store.Put(ctx, "sid-1", second))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "other-client", got.ClientID)
}

func TestEntryExpires(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(time.Minute)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(ctx, "sid-1", testContext()))

	current = current.Add(59 * time.Second)
	_, err := store.Get(ctx, "sid-1")
	require.NoError(t, err, "entry should survive inside the TTL")

	current = current.Add(2 * time.Second)
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, sentinel.ErrExpired)

	// Once dropped the session reads as absent, not expired.
	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestClearTicketKeepsContext(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(time.Minute)

	require.NoError(t, store.Put(ctx, "sid-1", testContext()))
	require.NoError(t, store.ClearTicket(ctx, "sid-1"))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Empty(t, got.SessionTicket)
	assert.False(t, got.Active())
	assert.Equal(t, "demo-client", got.ClientID, "rest of the context survives for the rebuild")
}

func TestClearTicketMissingSessionIsNoop(t *testing.T) {
	store := NewInMemoryStore(time.Minute)
	assert.NoError(t, store.ClearTicket(context.Background(), "absent"))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(time.Minute)

	require.NoError(t, store.Put(ctx, "sid-1", testContext()))
	require.NoError(t, store.Delete(ctx, "sid-1"))

	_, err := store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "sid-1"), "deleting again is a no-op")
}

func TestZeroTTLDisablesExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)
	store.now = func() time.Time { return time.Date(2126, 1, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, store.Put(ctx, "sid-1", testContext()))
	_, err := store.Get(ctx, "sid-1")
	assert.NoError(t, err)
}
