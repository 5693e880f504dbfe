package extapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "authbridge/pkg/domain-errors"
)

func newTestClient(url string) *Client {
	return New(url, "test-platform", time.Second, 2*time.Second)
}

func TestResolveIdentitySuccess(t *testing.T) {
	var received UserInfoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(UserInfoResponse{
			StatusCode: "0000",
			StatusDesc: "success",
			CustomerID: "CUST-1",
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).ResolveIdentity(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "CUST-1", resp.CustomerID)
	assert.Equal(t, UserInfoRequest{PlatformID: "test-platform", Token: "tok-1"}, received)
}

func TestResolveIdentityProviderFailureCodePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(UserInfoResponse{StatusCode: "9002", StatusDesc: "unknown token"})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).ResolveIdentity(context.Background(), "tok-1")
	require.NoError(t, err, "provider-level failure is not a transport error")
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, "9002", resp.StatusCode)
}

func TestResolveIdentityNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ResolveIdentity(context.Background(), "tok-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalAPIFailed))
}

func TestResolveIdentityMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ResolveIdentity(context.Background(), "tok-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalAPIFailed))
}

func TestResolveIdentityConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).ResolveIdentity(context.Background(), "tok-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalAPIFailed))
}

func TestResolveIdentitySingleAttempt(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ResolveIdentity(context.Background(), "tok-1")
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "failed calls must not be retried")
}
