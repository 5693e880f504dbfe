// Package handler is the engine's browser-facing surface: the authorize entry
// point and the consent pages.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"authbridge/internal/engine/models"
	"authbridge/internal/transport/http/views"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/requestcontext"
)

// Service defines the engine operations the handler needs.
type Service interface {
	Authorize(ctx context.Context, sid string, req models.AuthorizeRequest, rawQuery url.Values) (string, error)
	ShowTerms(ctx context.Context, sid, clientID, state string) (models.TermsView, error)
	ApproveTerms(ctx context.Context, sid, clientID, state string, scopes []string) (string, error)
}

type Handler struct {
	logger *slog.Logger
	engine Service
}

func New(engine Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, engine: engine}
}

// Register registers the engine routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/oauth2/authorize", h.handleAuthorize)
	r.Get("/terms", h.handleTerms)
	r.Post("/terms/approve", h.handleApprove)
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.BrowserSessionID(ctx)
	query := r.URL.Query()

	req := models.AuthorizeRequest{
		ResponseType: query.Get("response_type"),
		ClientID:     query.Get("client_id"),
		RedirectURI:  query.Get("redirect_uri"),
		Scope:        query.Get("scope"),
		State:        query.Get("state"),
	}

	target, err := h.engine.Authorize(ctx, sid, req, query)
	if err != nil {
		h.renderError(w, r, "authorize rejected", err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handleTerms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.BrowserSessionID(ctx)

	view, err := h.engine.ShowTerms(ctx, sid, r.URL.Query().Get("client_id"), r.URL.Query().Get("state"))
	if err != nil {
		h.renderError(w, r, "terms page rejected", err)
		return
	}
	views.Terms(w, view)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := requestcontext.BrowserSessionID(ctx)

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, "approval form unreadable",
			dErrors.New(dErrors.CodeBadRequest, "unparseable approval form"))
		return
	}

	target, err := h.engine.ApproveTerms(ctx, sid,
		r.PostForm.Get("client_id"),
		r.PostForm.Get("state"),
		r.PostForm["scope"],
	)
	if err != nil {
		h.renderError(w, r, "approval rejected", err)
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
