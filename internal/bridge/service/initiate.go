package service

import (
	"context"
	"errors"

	"authbridge/internal/bridge/models"
	"authbridge/internal/bridge/ticket"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/platform/sentinel"
	"authbridge/pkg/requestcontext"
)

// InitiateLogin prepares the redirect to the external identity provider for
// the authorize request suspended under the browser session sid.
//
// requestBase is the scheme://host[:port] of the originating request; the
// callback URL is derived from it with a fixed path and no query. The
// returned prompt is a view model for the consent-to-redirect screen; the
// HTTP redirect itself is left to presentation.
func (s *Service) InitiateLogin(ctx context.Context, sid, requestBase string) (*models.LoginPrompt, error) {
	saved, err := s.saved.Get(ctx, sid)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeMissingAuthRequest, "no suspended request for session")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load suspended request", err)
	}

	clientID := saved.FirstParam("client_id")
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeMissingClientID, "suspended request has no client_id")
	}

	sessionTicket := ticket.Issue(clientID)
	pctx := models.PendingAuthContext{
		ClientID:      clientID,
		RedirectURI:   saved.FirstParam("redirect_uri"),
		Scope:         saved.FirstParam("scope"),
		State:         saved.FirstParam("state"),
		SessionTicket: sessionTicket,
	}
	// Overwrites any prior pending flow: at most one per browser session.
	if err := s.pending.Put(ctx, sid, pctx); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "store pending context", err)
	}

	callbackURL := requestBase + CallbackPath
	loginURL, err := s.buildExternalLoginURL(sessionTicket, callbackURL)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "build external login URL", err)
	}

	clientName, err := s.clients.DisplayName(ctx, clientID)
	if err != nil {
		// Unregistered display name falls back to the raw client ID.
		clientName = clientID
	}

	loginInitiations.Inc()
	s.logger.InfoContext(ctx, "redirecting to external login",
		"client_id", clientID,
		"request_id", requestcontext.RequestID(ctx),
	)

	return &models.LoginPrompt{
		ClientID:         clientID,
		ClientName:       clientName,
		ExternalSession:  sessionTicket,
		ExternalLoginURL: loginURL,
	}, nil
}
