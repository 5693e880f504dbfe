// Package domainerrors defines the typed error vocabulary for the bridge.
//
// Services raise a single typed condition carrying a Code and an optional
// detail message. The transport layer maps the code to its pre-registered
// user-facing message; the detail (which may contain provider-supplied free
// text) is for server-side logs only and must never reach the user.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	// Authorization-flow prerequisites.
	CodeMissingAuthRequest Code = "missing_auth_request"
	CodeMissingClientID    Code = "missing_client_id"
	CodeMissingState       Code = "missing_state"

	// External handshake failures.
	CodeCallbackParse           Code = "callback_parse_failed"
	CodeExternalAuthFailed      Code = "external_auth_failed"
	CodeAuthFlowExpired         Code = "auth_flow_expired"
	CodeSessionValidationFailed Code = "session_validation_failed"
	CodeExternalAPIFailed       Code = "external_api_failed"
	CodeMissingCustomerID       Code = "missing_customer_id"
	CodeNotAuthenticated        Code = "not_authenticated"

	// Generic codes used by the admin surface and stores.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal_error"
)

// userMessages holds the canned, user-safe message per code. These are the
// only failure texts ever rendered to a browser.
var userMessages = map[Code]string{
	CodeMissingAuthRequest:      "No authorization request was found. Please restart the authorization flow.",
	CodeMissingClientID:         "The authorization request is missing client_id. Please restart the authorization flow.",
	CodeMissingState:            "The authorization request is missing state. Please restart the authorization flow.",
	CodeCallbackParse:           "The callback data was malformed. Please restart the authorization flow.",
	CodeExternalAuthFailed:      "External authentication failed. Please try again.",
	CodeAuthFlowExpired:         "The authorization flow has expired or is invalid. Please restart the authorization flow.",
	CodeSessionValidationFailed: "Session validation failed. Please restart the authorization flow.",
	CodeExternalAPIFailed:       "The external service is temporarily unavailable. Please try again later.",
	CodeMissingCustomerID:       "Your user information could not be retrieved. Please try again.",
	CodeNotAuthenticated:        "You must sign in before viewing the consent page.",
	CodeBadRequest:              "The request was invalid.",
	CodeUnauthorized:            "Authentication is required.",
	CodeNotFound:                "The requested resource was not found.",
	CodeInternal:                "An unexpected error occurred. Please try again later.",
}

// DomainError is the single error type services raise.
type DomainError struct {
	Code   Code
	Detail string
	cause  error
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return string(e.Code)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New creates a domain error with a detail message for server-side logs.
func New(code Code, detail string) error {
	return &DomainError{Code: code, Detail: detail}
}

// Wrap attaches a cause so errors.Is/As keep working through the domain layer.
func Wrap(code Code, detail string, cause error) error {
	return &DomainError{Code: code, Detail: detail, cause: cause}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for untyped
// errors so unexpected failures never leak detail to the user.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// UserMessage returns the pre-registered user-facing message for a code.
func UserMessage(code Code) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[CodeInternal]
}

// ToHTTPStatus maps a code to the HTTP status the transport layer should use.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeCallbackParse, CodeMissingClientID, CodeMissingState:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeNotAuthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMissingAuthRequest, CodeAuthFlowExpired, CodeSessionValidationFailed, CodeExternalAuthFailed:
		return http.StatusForbidden
	case CodeExternalAPIFailed:
		return http.StatusBadGateway
	case CodeMissingCustomerID:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
