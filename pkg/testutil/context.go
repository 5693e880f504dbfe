package testutil

import (
	"net/http"
	"time"

	"authbridge/pkg/requestcontext"
)

// WithBrowserSession adds a browser session ID to the request context.
// This simulates what the session middleware would do.
func WithBrowserSession(req *http.Request, sid string) *http.Request {
	ctx := requestcontext.WithBrowserSessionID(req.Context(), sid)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock for deterministic assertions.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
