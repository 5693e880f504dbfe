// Package handler is the bridge's browser-facing surface: the external-login
// prompt and the provider callback.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"authbridge/internal/bridge/models"
	"authbridge/internal/transport/http/views"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/requestcontext"
)

// Service defines the bridge operations the handler needs.
type Service interface {
	InitiateLogin(ctx context.Context, sid, requestBase string) (*models.LoginPrompt, error)
	HandleCallback(ctx context.Context, sid, data string) (string, error)
}

type Handler struct {
	logger  *slog.Logger
	bridge  Service
	baseURL string
}

// New wires the bridge handler. baseURL is the public scheme://host[:port]
// of this server, used to derive the callback URL handed to the provider.
func New(bridge Service, baseURL string, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, bridge: bridge, baseURL: baseURL}
}

// Register registers the bridge routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/external-login", h.handleExternalLogin)
	r.Get("/oauth2/callback", h.handleCallback)
}

// handleExternalLogin shows the consent-to-redirect prompt for the suspended
// authorize request.
func (h *Handler) handleExternalLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.BrowserSessionID(ctx)

	prompt, err := h.bridge.InitiateLogin(ctx, sid, h.baseURL)
	if err != nil {
		h.renderError(w, r, "login initiation failed", err)
		return
	}
	views.LoginPrompt(w, *prompt)
}

// handleCallback validates the provider's redirect and resumes the original
// authorize request on success.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.BrowserSessionID(ctx)

	data := r.URL.Query().Get("data")
	if data == "" {
		h.renderError(w, r, "callback missing data parameter",
			dErrors.New(dErrors.CodeCallbackParse, "callback carries no data parameter"))
		return
	}

	target, err := h.bridge.HandleCallback(ctx, sid, data)
	if err != nil {
		h.renderError(w, r, "callback rejected", err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
	views.Error(w, err)
}
