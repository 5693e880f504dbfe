// Package service implements the authorization engine's decision flow: admit
// the authorize request, detour unauthenticated sessions through the external
// login bridge, and collect consent before releasing an authorization code.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	bridgemodels "authbridge/internal/bridge/models"
	"authbridge/internal/consent"
	"authbridge/internal/engine/models"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/platform/sentinel"
	platformstrings "authbridge/pkg/platform/strings"
	"authbridge/pkg/requestcontext"
)

// ExternalLoginPath is where unauthenticated sessions are detoured.
const ExternalLoginPath = "/external-login"

// TermsPath is the consent page shown before a code is released.
const TermsPath = "/terms"

// AuthorizePath is the engine's own entry point, recorded into suspended
// requests so the bridge can replay them.
const AuthorizePath = "/oauth2/authorize"

type ClientRegistry interface {
	FindByClientID(ctx context.Context, clientID string) (models.RegisteredClient, error)
}

type SecurityContextStore interface {
	Get(ctx context.Context, sid string) (bridgemodels.Principal, error)
}

type SavedRequestStore interface {
	Save(ctx context.Context, sid string, req bridgemodels.SavedRequest) error
}

type PendingStore interface {
	Get(ctx context.Context, sid string) (bridgemodels.PendingAuthContext, error)
	Delete(ctx context.Context, sid string) error
}

type ConsentService interface {
	Lookup(ctx context.Context, registeredClientID, principalName string) (*consent.ConsentRecord, error)
	Record(ctx context.Context, registeredClientID, principalName string, scopes []string) (consent.ConsentRecord, error)
}

type Service struct {
	clients  ClientRegistry
	security SecurityContextStore
	saved    SavedRequestStore
	pending  PendingStore
	consent  ConsentService
	logger   *slog.Logger
}

func New(
	clients ClientRegistry,
	security SecurityContextStore,
	saved SavedRequestStore,
	pending PendingStore,
	consentSvc ConsentService,
	logger *slog.Logger,
) *Service {
	return &Service{
		clients:  clients,
		security: security,
		saved:    saved,
		pending:  pending,
		consent:  consentSvc,
		logger:   logger,
	}
}

// Authorize admits an authorize request and returns the next URL for the
// browser. Unauthenticated sessions are suspended and detoured to the
// external login; authenticated ones proceed to the consent check.
func (s *Service) Authorize(ctx context.Context, sid string, req models.AuthorizeRequest, rawQuery url.Values) (string, error) {
	if err := validateAuthorizeRequest(req); err != nil {
		return "", err
	}

	client, err := s.clients.FindByClientID(ctx, req.ClientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown client "+req.ClientID)
	}
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "client lookup", err)
	}
	if req.RedirectURI != "" && !client.AllowsRedirectURI(req.RedirectURI) {
		return "", dErrors.New(dErrors.CodeBadRequest, "redirect_uri not registered for client")
	}

	principal, err := s.security.Get(ctx, sid)
	if errors.Is(err, sentinel.ErrNotFound) {
		if err := s.saved.Save(ctx, sid, bridgemodels.SavedRequest{
			Method: "GET",
			Path:   AuthorizePath,
			Query:  rawQuery,
		}); err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "suspend authorize request", err)
		}
		s.logger.InfoContext(ctx, "authorize suspended for external login",
			"client_id", req.ClientID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return ExternalLoginPath, nil
	}
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "load principal", err)
	}

	grant, err := s.consent.Lookup(ctx, req.ClientID, principal.CustomerID)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "consent lookup", err)
	}
	if grant == nil {
		return termsURL(req.ClientID, req.State), nil
	}
	// A prior grant satisfies this request; release a code immediately.
	return s.issueCode(ctx, sid, client, req.RedirectURI, req.State)
}

// ShowTerms builds the consent page view. Missing parameters fall back to the
// pending context before failing.
func (s *Service) ShowTerms(ctx context.Context, sid, clientID, state string) (models.TermsView, error) {
	if _, err := s.security.Get(ctx, sid); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TermsView{}, dErrors.New(dErrors.CodeNotAuthenticated, "no principal for session")
		}
		return models.TermsView{}, dErrors.Wrap(dErrors.CodeInternal, "load principal", err)
	}

	pctx, pendingErr := s.pending.Get(ctx, sid)
	if clientID == "" && pendingErr == nil {
		clientID = pctx.ClientID
	}
	if state == "" && pendingErr == nil {
		state = pctx.State
	}
	if clientID == "" {
		return models.TermsView{}, dErrors.New(dErrors.CodeMissingClientID, "terms page requires client_id")
	}
	if state == "" {
		return models.TermsView{}, dErrors.New(dErrors.CodeMissingState, "terms page requires state")
	}

	view := models.TermsView{
		ClientID:   clientID,
		ClientName: clientID,
		State:      state,
	}
	if client, err := s.clients.FindByClientID(ctx, clientID); err == nil {
		view.ClientName = client.Name
		view.Scopes = client.Scopes
	}
	if pendingErr == nil && pctx.Scope != "" {
		view.Scopes = splitScopes(pctx.Scope)
	}
	return view, nil
}

// ApproveTerms records the consent grant and releases an authorization code
// to the client's redirect URI. The pending context is retired afterwards.
func (s *Service) ApproveTerms(ctx context.Context, sid, clientID, state string, scopes []string) (string, error) {
	principal, err := s.security.Get(ctx, sid)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeNotAuthenticated, "no principal for session")
	}
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "load principal", err)
	}
	if clientID == "" {
		return "", dErrors.New(dErrors.CodeMissingClientID, "approval requires client_id")
	}

	client, err := s.clients.FindByClientID(ctx, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown client "+clientID)
	}
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "client lookup", err)
	}

	redirectURI := ""
	if pctx, err := s.pending.Get(ctx, sid); err == nil {
		redirectURI = pctx.RedirectURI
		if state == "" {
			state = pctx.State
		}
		if len(scopes) == 0 && pctx.Scope != "" {
			scopes = splitScopes(pctx.Scope)
		}
	}
	if redirectURI == "" && len(client.RedirectURIs) > 0 {
		redirectURI = client.RedirectURIs[0]
	}
	if redirectURI == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "no redirect_uri available for client")
	}

	if _, err := s.consent.Record(ctx, clientID, principal.CustomerID, scopes); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "record consent", err)
	}

	return s.issueCode(ctx, sid, client, redirectURI, state)
}

// issueCode mints an opaque single-use code and builds the client redirect.
// Code redemption (token endpoint) is out of scope; the code is the terminal
// artifact of this flow.
func (s *Service) issueCode(ctx context.Context, sid string, client models.RegisteredClient, redirectURI, state string) (string, error) {
	if redirectURI == "" && len(client.RedirectURIs) > 0 {
		redirectURI = client.RedirectURIs[0]
	}
	if redirectURI == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "no redirect_uri available for client")
	}

	code := uuid.NewString()
	if err := s.pending.Delete(ctx, sid); err != nil {
		s.logger.WarnContext(ctx, "failed to retire pending context", "error", err.Error())
	}
	s.logger.InfoContext(ctx, "authorization code issued",
		"client_id", client.ClientID,
		"request_id", requestcontext.RequestID(ctx),
	)

	target := redirectURI + "?code=" + url.QueryEscape(code)
	if state != "" {
		target += "&state=" + url.QueryEscape(state)
	}
	return target, nil
}

func termsURL(clientID, state string) string {
	target := TermsPath + "?client_id=" + url.QueryEscape(clientID)
	if state != "" {
		target += "&state=" + url.QueryEscape(state)
	}
	return target
}

func validateAuthorizeRequest(req models.AuthorizeRequest) error {
	if req.ResponseType != "" && req.ResponseType != "code" {
		return dErrors.New(dErrors.CodeBadRequest, "unsupported response_type "+req.ResponseType)
	}
	if !govalidator.StringLength(req.ClientID, "1", "100") {
		return dErrors.New(dErrors.CodeMissingClientID, "authorize requires client_id")
	}
	if req.RedirectURI != "" && !govalidator.IsURL(req.RedirectURI) {
		return dErrors.New(dErrors.CodeBadRequest, "redirect_uri is not a valid URL")
	}
	return nil
}

func splitScopes(scope string) []string {
	return platformstrings.DedupeAndTrim(strings.Fields(scope))
}
