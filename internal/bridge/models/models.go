// Package models holds the value types exchanged between the bridge's
// handlers, service, and stores.
package models

import (
	"net/url"
	"time"
)

// PendingAuthContext is the per-browser-session state held while an
// authorization is parked behind the external login redirect. At most one
// pending flow exists per browser session; a new initiation overwrites it.
type PendingAuthContext struct {
	ClientID      string `json:"client_id"`
	RedirectURI   string `json:"redirect_uri,omitempty"`
	Scope         string `json:"scope,omitempty"`
	State         string `json:"state,omitempty"`
	SessionTicket string `json:"session_ticket"`
}

// Active reports whether the context can still admit a callback. A context
// whose ticket has been consumed is kept around for the authorize rebuild but
// no longer validates callbacks.
func (p PendingAuthContext) Active() bool {
	return p.ClientID != "" && p.SessionTicket != ""
}

// SavedRequest captures an in-flight HTTP request so it can be replayed after
// the external handshake completes.
type SavedRequest struct {
	Method string     `json:"method"`
	Path   string     `json:"path"`
	Query  url.Values `json:"query,omitempty"`
}

// FirstParam returns the first value of a query parameter, or "".
func (s SavedRequest) FirstParam(name string) string {
	values, ok := s.Query[name]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}

// RedirectTarget reproduces the original request URL (path plus query).
func (s SavedRequest) RedirectTarget() string {
	if len(s.Query) == 0 {
		return s.Path
	}
	return s.Path + "?" + s.Query.Encode()
}

// Principal is the authenticated identity established after a successful
// handshake. It carries no authorities beyond "authenticated".
type Principal struct {
	CustomerID      string    `json:"customer_id"`
	AuthTime        time.Time `json:"auth_time"`
	ExternalSession string    `json:"external_session"`
	ExternalToken   string    `json:"external_token"`
}

// ResolvedIdentity is the outcome of a successful identity-resolution call,
// with the provenance that produced it.
type ResolvedIdentity struct {
	CustomerID string
	Token      string
	Session    string
}

// LoginPrompt is the view model for the consent-to-redirect screen shown
// before the browser is sent to the external provider.
type LoginPrompt struct {
	ClientID         string
	ClientName       string
	ExternalSession  string
	ExternalLoginURL string
}
