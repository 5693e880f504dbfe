// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware but consumed by services. Keeping this package
// free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	sid := requestcontext.BrowserSessionID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithBrowserSessionID(ctx, sid)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	browserSessionIDKey struct{}
	requestIDKey        struct{}
	requestTimeKey      struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyBrowserSessionID = browserSessionIDKey{}
	ContextKeyRequestID        = requestIDKey{}
	ContextKeyRequestTime      = requestTimeKey{}
)

// BrowserSessionID retrieves the browser session identifier from the context.
// Returns "" if not set.
func BrowserSessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(ContextKeyBrowserSessionID).(string); ok {
		return sid
	}
	return ""
}

// WithBrowserSessionID injects a browser session identifier into the context.
func WithBrowserSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ContextKeyBrowserSessionID, sid)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts like workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
