// Package service orchestrates the external authentication handshake: login
// initiation, callback validation, principal establishment, and request
// resumption. Transport concerns stay in handlers; storage behind the store
// interfaces.
package service

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"authbridge/internal/bridge/extapi"
	"authbridge/internal/bridge/models"
)

var (
	loginInitiations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_login_initiations_total",
		Help: "Number of external login initiations",
	})
	callbackOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authbridge_callbacks_total",
		Help: "Callback validations by outcome",
	}, []string{"outcome"})
	identityResolutionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "authbridge_identity_resolution_seconds",
		Help:    "Latency of identity-resolution API calls",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)

// PendingStore holds the per-session pending authentication context.
type PendingStore interface {
	Put(ctx context.Context, sid string, pctx models.PendingAuthContext) error
	Get(ctx context.Context, sid string) (models.PendingAuthContext, error)
	ClearTicket(ctx context.Context, sid string) error
	Delete(ctx context.Context, sid string) error
}

// SavedRequestStore is the original-request suspension store.
type SavedRequestStore interface {
	Get(ctx context.Context, sid string) (models.SavedRequest, error)
	Remove(ctx context.Context, sid string) error
}

// SecurityContextStore persists the authenticated principal per session.
type SecurityContextStore interface {
	Establish(ctx context.Context, sid string, principal models.Principal) error
}

// ClientDirectory resolves display names from the authorization engine's
// client registry.
type ClientDirectory interface {
	// DisplayName returns the registered display name, or
	// sentinel.ErrNotFound when the client has none registered.
	DisplayName(ctx context.Context, clientID string) (string, error)
}

// IdentityResolver calls the external identity provider's identity API.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (extapi.UserInfoResponse, error)
}

// Paths the service needs to know about on its own server.
const (
	CallbackPath  = "/oauth2/callback"
	AuthorizePath = "/oauth2/authorize"
	errorPagePath = "/error"
)

// Service implements the bridge protocol.
type Service struct {
	pending  PendingStore
	saved    SavedRequestStore
	security SecurityContextStore
	clients  ClientDirectory
	identity IdentityResolver
	loginURL string
	logger   *slog.Logger
}

// New wires the bridge service. loginURL is the external provider's full
// login endpoint.
func New(
	pending PendingStore,
	saved SavedRequestStore,
	security SecurityContextStore,
	clients ClientDirectory,
	identity IdentityResolver,
	loginURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		pending:  pending,
		saved:    saved,
		security: security,
		clients:  clients,
		identity: identity,
		loginURL: loginURL,
		logger:   logger,
	}
}

// buildExternalLoginURL attaches the session ticket and callback URL to the
// provider's login endpoint.
func (s *Service) buildExternalLoginURL(sessionTicket, callbackURL string) (string, error) {
	u, err := url.Parse(s.loginURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("session", sessionTicket)
	q.Set("callback_url", callbackURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
