// Package httptransport assembles the root router. Handlers register their
// own routes; this layer only owns the shared middleware chain and the
// operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authbridge/internal/platform/middleware"
)

// RouteRegistrar is anything that can attach routes to the root router.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// NewRouter wires the shared middleware chain, the operational endpoints, and
// every provided surface.
func NewRouter(logger *slog.Logger, surfaces ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.BrowserSession)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	for _, surface := range surfaces {
		surface.Register(r)
	}
	return r
}
