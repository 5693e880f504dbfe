package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authbridge/internal/bridge/models"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/testutil"
)

type stubBridge struct {
	prompt      *models.LoginPrompt
	initiateErr error

	callbackSID    string
	callbackData   string
	callbackTarget string
	callbackErr    error
}

func (s *stubBridge) InitiateLogin(_ context.Context, _, _ string) (*models.LoginPrompt, error) {
	if s.initiateErr != nil {
		return nil, s.initiateErr
	}
	return s.prompt, nil
}

func (s *stubBridge) HandleCallback(_ context.Context, sid, data string) (string, error) {
	s.callbackSID = sid
	s.callbackData = data
	if s.callbackErr != nil {
		return "", s.callbackErr
	}
	return s.callbackTarget, nil
}

func newRouter(t *testing.T, bridge *stubBridge) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(bridge, "https://bridge.example", logger).Register(r)
	return r
}

func TestExternalLoginRendersPrompt(t *testing.T) {
	bridge := &stubBridge{prompt: &models.LoginPrompt{
		ClientID:         "demo-client",
		ClientName:       "Demo Client",
		ExternalLoginURL: "https://idp.example/login?session=abc",
	}}
	router := newRouter(t, bridge)

	req := testutil.WithBrowserSession(
		httptest.NewRequest(http.MethodGet, "/external-login", nil), "sid-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	body := string(testutil.ReadBody(t, w))
	assert.Contains(t, body, "Demo Client")
	assert.Contains(t, body, "https://idp.example/login?session=abc")
}

func TestExternalLoginWithoutPendingRequest(t *testing.T) {
	bridge := &stubBridge{
		initiateErr: dErrors.New(dErrors.CodeMissingAuthRequest, "no saved request"),
	}
	router := newRouter(t, bridge)

	req := testutil.WithBrowserSession(
		httptest.NewRequest(http.MethodGet, "/external-login", nil), "sid-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusForbidden)
	body := string(testutil.ReadBody(t, w))
	assert.Contains(t, body, dErrors.UserMessage(dErrors.CodeMissingAuthRequest))
	assert.NotContains(t, body, "no saved request", "internal detail stays out of the page")
}

func TestCallbackRedirectsToResumeTarget(t *testing.T) {
	bridge := &stubBridge{callbackTarget: "/oauth2/authorize?client_id=demo-client"}
	router := newRouter(t, bridge)

	req := testutil.WithBrowserSession(
		httptest.NewRequest(http.MethodGet, "/oauth2/callback?data=ZW52ZWxvcGU", nil), "sid-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	testutil.AssertRedirect(t, w, "/oauth2/authorize?client_id=demo-client")
	assert.Equal(t, "sid-1", bridge.callbackSID)
	assert.Equal(t, "ZW52ZWxvcGU", bridge.callbackData)
}

func TestCallbackMissingData(t *testing.T) {
	bridge := &stubBridge{}
	router := newRouter(t, bridge)

	req := testutil.WithBrowserSession(
		httptest.NewRequest(http.MethodGet, "/oauth2/callback", nil), "sid-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
	require.Empty(t, bridge.callbackData, "service is not consulted without data")
	body := string(testutil.ReadBody(t, w))
	assert.Contains(t, body, dErrors.UserMessage(dErrors.CodeCallbackParse))
}

func TestCallbackRejectionRendersCannedMessage(t *testing.T) {
	bridge := &stubBridge{
		callbackErr: dErrors.New(dErrors.CodeSessionValidationFailed, "ticket mismatch for sid-1"),
	}
	router := newRouter(t, bridge)

	req := testutil.WithBrowserSession(
		httptest.NewRequest(http.MethodGet, "/oauth2/callback?data=ZW52ZWxvcGU", nil), "sid-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusForbidden)
	body := string(testutil.ReadBody(t, w))
	assert.Contains(t, body, dErrors.UserMessage(dErrors.CodeSessionValidationFailed))
	assert.NotContains(t, body, "ticket mismatch")
}
