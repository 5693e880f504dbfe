package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"authbridge/internal/bridge/codec"
	"authbridge/internal/bridge/models"
	"authbridge/internal/bridge/ticket"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/platform/sentinel"
	"authbridge/pkg/requestcontext"
)

// HandleCallback consumes the external identity provider's redirect for the
// browser session sid and returns the URL the browser should be sent to next.
//
// The validation sequence is strict and ordered: decode, provider status,
// token presence, pending context, ticket shape, ticket exact match, identity
// resolution, principal establishment, resumption. Any failure is terminal
// for the attempt; the user must restart the flow from its entry point.
//
// The session ticket is consumed as soon as both ticket checks pass, before
// the identity-resolution call. A captured callback URL therefore cannot be
// replayed to re-attempt resolution after a provider failure; the trade-off
// is that transient provider errors force a flow restart.
func (s *Service) HandleCallback(ctx context.Context, sid, data string) (string, error) {
	target, err := s.handleCallback(ctx, sid, data)
	if err != nil {
		callbackOutcomes.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
		return "", err
	}
	callbackOutcomes.WithLabelValues("success").Inc()
	return target, nil
}

func (s *Service) handleCallback(ctx context.Context, sid, data string) (string, error) {
	env, err := codec.Decode(data)
	if err != nil {
		return "", err
	}

	if !env.IsSuccess() {
		return "", dErrors.New(dErrors.CodeExternalAuthFailed,
			"provider reported "+env.StatusCode+": "+env.StatusDesc)
	}
	if strings.TrimSpace(env.Token) == "" {
		return "", dErrors.New(dErrors.CodeExternalAuthFailed, "provider omitted token")
	}

	pctx, err := s.pending.Get(ctx, sid)
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		return "", dErrors.New(dErrors.CodeAuthFlowExpired, "no pending context for session")
	}
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "load pending context", err)
	}
	if !pctx.Active() {
		return "", dErrors.New(dErrors.CodeAuthFlowExpired, "pending context already consumed")
	}

	// Two independent checks: shape-level client binding, then exact match
	// against the server-held ticket. Both must pass.
	if !ticket.Verify(env.Session, pctx.ClientID) {
		return "", dErrors.New(dErrors.CodeSessionValidationFailed, "ticket failed shape verification")
	}
	if env.Session != pctx.SessionTicket {
		return "", dErrors.New(dErrors.CodeSessionValidationFailed, "ticket does not match pending context")
	}

	// Consume the ticket now so this callback URL is single-use even when
	// identity resolution fails below.
	if err := s.pending.ClearTicket(ctx, sid); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "consume session ticket", err)
	}

	identity, err := s.resolveIdentity(ctx, env)
	if err != nil {
		return "", err
	}

	principal := models.Principal{
		CustomerID:      identity.CustomerID,
		AuthTime:        requestcontext.Now(ctx),
		ExternalSession: identity.Session,
		ExternalToken:   identity.Token,
	}
	if err := s.security.Establish(ctx, sid, principal); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "establish principal", err)
	}

	s.logger.InfoContext(ctx, "external authentication completed",
		"client_id", pctx.ClientID,
		"request_id", requestcontext.RequestID(ctx),
	)

	return s.resumeTarget(ctx, sid, pctx), nil
}

// resolveIdentity exchanges the opaque token for a verified identity via the
// provider's API and validates the provider-level response.
func (s *Service) resolveIdentity(ctx context.Context, env codec.Envelope) (models.ResolvedIdentity, error) {
	start := time.Now()
	info, err := s.identity.ResolveIdentity(ctx, env.Token)
	identityResolutionSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return models.ResolvedIdentity{}, err
	}
	if !info.IsSuccess() {
		return models.ResolvedIdentity{}, dErrors.New(dErrors.CodeExternalAPIFailed,
			"identity API reported "+info.StatusCode+": "+info.StatusDesc)
	}
	if strings.TrimSpace(info.CustomerID) == "" {
		return models.ResolvedIdentity{}, dErrors.New(dErrors.CodeMissingCustomerID,
			"identity API returned no customer ID")
	}
	return models.ResolvedIdentity{
		CustomerID: info.CustomerID,
		Token:      env.Token,
		Session:    env.Session,
	}, nil
}

// resumeTarget picks where the browser goes after authentication: the
// suspended request when one survives, otherwise the canonical authorize URL
// rebuilt from the pending context. The suspension store may legitimately be
// empty (restart, eviction) while the parameters are still known.
func (s *Service) resumeTarget(ctx context.Context, sid string, pctx models.PendingAuthContext) string {
	saved, err := s.saved.Get(ctx, sid)
	if err == nil {
		if err := s.saved.Remove(ctx, sid); err != nil {
			s.logger.WarnContext(ctx, "failed to remove suspended request", "error", err.Error())
		}
		target := saved.RedirectTarget()
		if target != "" && !strings.Contains(target, errorPagePath) {
			return target
		}
	}
	s.logger.WarnContext(ctx, "suspended request missing or invalid, rebuilding authorize URL",
		"client_id", pctx.ClientID,
	)
	return rebuildAuthorizeURL(pctx)
}

// rebuildAuthorizeURL deterministically reconstructs the authorize request
// from the pending context. Parameter order is fixed.
func rebuildAuthorizeURL(pctx models.PendingAuthContext) string {
	var b strings.Builder
	b.WriteString(AuthorizePath + "?response_type=code")
	b.WriteString("&client_id=" + url.QueryEscape(pctx.ClientID))
	if pctx.RedirectURI != "" {
		b.WriteString("&redirect_uri=" + url.QueryEscape(pctx.RedirectURI))
	}
	if pctx.Scope != "" {
		b.WriteString("&scope=" + url.QueryEscape(pctx.Scope))
	}
	if pctx.State != "" {
		b.WriteString("&state=" + url.QueryEscape(pctx.State))
	}
	return b.String()
}
