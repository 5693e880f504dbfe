// Package shared centralizes response writing so every surface emits the same
// JSON envelopes and the same domain-error translation.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "authbridge/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Only the error
// code and its canned user message cross the wire; detail stays in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": dErrors.UserMessage(code),
	})
}
