// Package extapi is the synchronous client for the external identity
// provider's identity-resolution API. The provider is untrusted input; this
// client only moves bytes and reports transport-level failure, field-level
// validation stays in the callback validator.
package extapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	dErrors "authbridge/pkg/domain-errors"
)

// UserInfoRequest is the API request payload.
type UserInfoRequest struct {
	PlatformID string `json:"platformId"`
	Token      string `json:"token"`
}

// UserInfoResponse is the API response payload. StatusCode "0000" means
// success; CustomerID may be empty even on success and must be checked by the
// caller.
type UserInfoResponse struct {
	StatusCode string `json:"statusCode"`
	StatusDesc string `json:"statusDesc"`
	CustomerID string `json:"customerId"`
}

// IsSuccess reports whether the API call succeeded on the provider side.
func (r UserInfoResponse) IsSuccess() bool {
	return r.StatusCode == "0000"
}

// Client calls the identity-resolution API. Failures are surfaced, never
// retried: a single externally-observable failure becomes a single
// user-visible error.
type Client struct {
	httpClient *http.Client
	apiURL     string
	platformID string
}

// New creates a client with the configured connect and read timeouts.
func New(apiURL, platformID string, connectTimeout, readTimeout time.Duration) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &Client{
		httpClient: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		apiURL:     apiURL,
		platformID: platformID,
	}
}

// ResolveIdentity exchanges the opaque token for the provider's identity
// response. Transport errors and non-2xx statuses map to CodeExternalAPIFailed.
func (c *Client) ResolveIdentity(ctx context.Context, token string) (UserInfoResponse, error) {
	payload, err := json.Marshal(UserInfoRequest{PlatformID: c.platformID, Token: token})
	if err != nil {
		return UserInfoResponse{}, dErrors.Wrap(dErrors.CodeInternal, "marshal userinfo request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return UserInfoResponse{}, dErrors.Wrap(dErrors.CodeInternal, "build userinfo request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UserInfoResponse{}, dErrors.Wrap(dErrors.CodeExternalAPIFailed, "identity API call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UserInfoResponse{}, dErrors.New(dErrors.CodeExternalAPIFailed,
			fmt.Sprintf("identity API returned status %d", resp.StatusCode))
	}

	var body UserInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return UserInfoResponse{}, dErrors.Wrap(dErrors.CodeExternalAPIFailed, "decode identity API response", err)
	}
	return body, nil
}
