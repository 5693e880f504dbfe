// Package handler exposes the consent history ledger to operators. These are
// administrative read and retention endpoints; the bridge flow itself writes
// consent through the engine, not through HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"authbridge/internal/consent"
	"authbridge/internal/platform/middleware"
	"authbridge/internal/transport/http/shared"
	dErrors "authbridge/pkg/domain-errors"
)

// Service defines the consent operations the admin surface needs.
type Service interface {
	HistoryByPrincipal(ctx context.Context, principalName string) ([]consent.ConsentRecord, error)
	HistoryByClient(ctx context.Context, registeredClientID string) ([]consent.ConsentRecord, error)
	HistoryByClientAndPrincipal(ctx context.Context, registeredClientID, principalName string) ([]consent.ConsentRecord, error)
	CountByPrincipal(ctx context.Context, principalName string) (int64, error)
	CountByClient(ctx context.Context, registeredClientID string) (int64, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Handler handles consent history admin endpoints.
type Handler struct {
	logger       *slog.Logger
	consent      Service
	jwtValidator middleware.JWTValidator
}

func New(consent Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		consent:      consent,
		jwtValidator: jwtValidator,
	}
}

// Register registers the admin routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	adminRouter.Get("/principal/{principal}", h.handleListByPrincipal)
	adminRouter.Get("/principal/{principal}/count", h.handleCountByPrincipal)
	adminRouter.Get("/client/{clientID}", h.handleListByClient)
	adminRouter.Get("/client/{clientID}/count", h.handleCountByClient)
	adminRouter.Get("/client/{clientID}/principal/{principal}", h.handleListByClientAndPrincipal)
	adminRouter.Delete("/", h.handlePurge)

	r.Mount("/admin/consent-history", adminRouter)
}

type countResponse struct {
	Count int64 `json:"count"`
}

type purgeResponse struct {
	Removed int64 `json:"removed"`
}

func (h *Handler) handleListByPrincipal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.consent.HistoryByPrincipal(ctx, chi.URLParam(r, "principal"))
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleListByClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.consent.HistoryByClient(ctx, chi.URLParam(r, "clientID"))
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleListByClientAndPrincipal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.consent.HistoryByClientAndPrincipal(ctx,
		chi.URLParam(r, "clientID"), chi.URLParam(r, "principal"))
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCountByPrincipal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.consent.CountByPrincipal(ctx, chi.URLParam(r, "principal"))
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleCountByClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.consent.CountByClient(ctx, chi.URLParam(r, "clientID"))
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

// handlePurge deletes history rows older than the required "before" cutoff.
func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	raw := r.URL.Query().Get("before")
	if raw == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing before parameter"))
		return
	}
	cutoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid purge cutoff",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "before must be RFC3339"))
		return
	}

	removed, err := h.consent.PurgeBefore(ctx, cutoff)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to purge consent history",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to purge consent history"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, purgeResponse{Removed: removed})
}

func (h *Handler) writeListError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "failed to query consent history",
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to query consent history"))
}
