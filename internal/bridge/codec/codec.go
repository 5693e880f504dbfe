// Package codec encodes and decodes the callback envelope exchanged with the
// external identity provider: a Base64-wrapped JSON object carried in a single
// URL query parameter.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	dErrors "authbridge/pkg/domain-errors"
)

// StatusSuccess is the provider's sole success sentinel. Any other status code
// is a provider-reported failure, not a transport or encoding error.
const StatusSuccess = "0000"

// Envelope is the immutable payload decoded from the provider's redirect.
// Missing fields decode to empty strings; validating them is the callback
// validator's job, not the codec's.
type Envelope struct {
	StatusCode string `json:"statusCode"`
	StatusDesc string `json:"statusDesc"`
	Session    string `json:"session"`
	Token      string `json:"token"`
}

// IsSuccess reports whether the provider reported success.
func (e Envelope) IsSuccess() bool {
	return e.StatusCode == StatusSuccess
}

// Encode serializes the envelope as JSON and applies standard Base64 so the
// result is safe as a single query-parameter value once URL-escaped.
func Encode(env Envelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "marshal callback envelope", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. It accepts both the standard and URL-safe Base64
// alphabets, with or without padding, and URL-unescapes the input first when
// the transport layer did not already do so.
func Decode(data string) (Envelope, error) {
	raw, err := decodeBase64(data)
	if err != nil {
		// The transport may hand us the still-escaped query value.
		if unescaped, uerr := url.QueryUnescape(data); uerr == nil && unescaped != data {
			raw, err = decodeBase64(unescaped)
		}
	}
	if err != nil {
		return Envelope{}, dErrors.Wrap(dErrors.CodeCallbackParse, "callback data is not valid base64", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, dErrors.Wrap(dErrors.CodeCallbackParse, "callback data is not a valid envelope", err)
	}
	return env, nil
}

var errNotBase64 = errors.New("not base64")

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNotBase64
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, errNotBase64
}
