package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"authbridge/internal/bridge/codec"
	"authbridge/internal/bridge/extapi"
	"authbridge/internal/bridge/models"
	"authbridge/internal/bridge/store/pending"
	"authbridge/internal/bridge/store/savedrequest"
	"authbridge/internal/bridge/store/securitycontext"
	dErrors "authbridge/pkg/domain-errors"
	"authbridge/pkg/platform/sentinel"
	"authbridge/pkg/requestcontext"
)

const (
	testSID      = "sid-1"
	testBase     = "http://bridge.example"
	testLoginURL = "http://provider.example/login"
)

type stubDirectory struct {
	names map[string]string
}

func (d *stubDirectory) DisplayName(_ context.Context, clientID string) (string, error) {
	name, ok := d.names[clientID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return name, nil
}

type stubResolver struct {
	resp  extapi.UserInfoResponse
	err   error
	calls int
}

func (r *stubResolver) ResolveIdentity(context.Context, string) (extapi.UserInfoResponse, error) {
	r.calls++
	return r.resp, r.err
}

type BridgeServiceSuite struct {
	suite.Suite
	pending  *pending.InMemoryStore
	saved    *savedrequest.InMemoryStore
	security *securitycontext.InMemoryStore
	resolver *stubResolver
	service  *Service
}

func TestBridgeServiceSuite(t *testing.T) {
	suite.Run(t, new(BridgeServiceSuite))
}

func (s *BridgeServiceSuite) SetupTest() {
	s.pending = pending.NewInMemoryStore(time.Minute)
	s.saved = savedrequest.NewInMemoryStore(time.Minute)
	s.security = securitycontext.NewInMemoryStore(time.Hour)
	s.resolver = &stubResolver{
		resp: extapi.UserInfoResponse{StatusCode: "0000", StatusDesc: "success", CustomerID: "CUST-1"},
	}
	directory := &stubDirectory{names: map[string]string{"demo-client": "Demo Client"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.service = New(s.pending, s.saved, s.security, directory, s.resolver, testLoginURL, logger)
}

func (s *BridgeServiceSuite) suspendAuthorize(clientID string) {
	err := s.saved.Save(context.Background(), testSID, models.SavedRequest{
		Method: "GET",
		Path:   AuthorizePath,
		Query: url.Values{
			"response_type": {"code"},
			"client_id":     {clientID},
			"redirect_uri":  {"https://client.example/cb"},
			"scope":         {"openid profile"},
			"state":         {"xyz"},
		},
	})
	s.Require().NoError(err)
}

// initiate runs a full login initiation and returns the issued ticket.
func (s *BridgeServiceSuite) initiate() string {
	s.suspendAuthorize("demo-client")
	prompt, err := s.service.InitiateLogin(context.Background(), testSID, testBase)
	s.Require().NoError(err)
	return prompt.ExternalSession
}

func (s *BridgeServiceSuite) encode(env codec.Envelope) string {
	data, err := codec.Encode(env)
	s.Require().NoError(err)
	return data
}

func (s *BridgeServiceSuite) successEnvelope(ticket string) string {
	return s.encode(codec.Envelope{
		StatusCode: codec.StatusSuccess,
		StatusDesc: "success",
		Session:    ticket,
		Token:      "tok-1",
	})
}

func (s *BridgeServiceSuite) TestInitiateLogin() {
	ctx := context.Background()

	s.Run("no suspended request", func() {
		_, err := s.service.InitiateLogin(ctx, "unknown-sid", testBase)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingAuthRequest))
	})

	s.Run("suspended request without client_id", func() {
		s.Require().NoError(s.saved.Save(ctx, testSID, models.SavedRequest{
			Method: "GET",
			Path:   AuthorizePath,
			Query:  url.Values{"state": {"xyz"}},
		}))
		_, err := s.service.InitiateLogin(ctx, testSID, testBase)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingClientID))
	})

	s.Run("success builds prompt and pending context", func() {
		s.suspendAuthorize("demo-client")
		prompt, err := s.service.InitiateLogin(ctx, testSID, testBase)
		s.Require().NoError(err)

		s.Equal("demo-client", prompt.ClientID)
		s.Equal("Demo Client", prompt.ClientName)
		s.True(strings.HasSuffix(prompt.ExternalSession, "_demo-client"))

		loginURL, err := url.Parse(prompt.ExternalLoginURL)
		s.Require().NoError(err)
		s.Equal(prompt.ExternalSession, loginURL.Query().Get("session"))
		s.Equal(testBase+CallbackPath, loginURL.Query().Get("callback_url"))

		pctx, err := s.pending.Get(ctx, testSID)
		s.Require().NoError(err)
		s.Equal(prompt.ExternalSession, pctx.SessionTicket)
		s.Equal("https://client.example/cb", pctx.RedirectURI)
		s.Equal("openid profile", pctx.Scope)
		s.Equal("xyz", pctx.State)
	})

	s.Run("unknown client name falls back to raw ID", func() {
		s.Require().NoError(s.saved.Save(ctx, "sid-2", models.SavedRequest{
			Method: "GET",
			Path:   AuthorizePath,
			Query:  url.Values{"client_id": {"unregistered"}},
		}))
		prompt, err := s.service.InitiateLogin(ctx, "sid-2", testBase)
		s.Require().NoError(err)
		s.Equal("unregistered", prompt.ClientName)
	})

	s.Run("re-initiation overwrites pending flow", func() {
		first := s.initiate()
		second := s.initiate()
		s.NotEqual(first, second)

		pctx, err := s.pending.Get(ctx, testSID)
		s.Require().NoError(err)
		s.Equal(second, pctx.SessionTicket, "only the latest ticket validates")
	})
}

func (s *BridgeServiceSuite) TestHandleCallbackRejections() {
	ctx := context.Background()

	s.Run("malformed data", func() {
		_, err := s.service.HandleCallback(ctx, testSID, "!!garbage!!")
		s.True(dErrors.HasCode(err, dErrors.CodeCallbackParse))
	})

	s.Run("provider reported failure", func() {
		s.initiate()
		data := s.encode(codec.Envelope{StatusCode: "4001", StatusDesc: "user cancelled"})
		_, err := s.service.HandleCallback(ctx, testSID, data)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalAuthFailed))
		s.Zero(s.resolver.calls, "no identity call on provider failure")
	})

	s.Run("success status with blank token", func() {
		ticket := s.initiate()
		data := s.encode(codec.Envelope{StatusCode: codec.StatusSuccess, Session: ticket, Token: "   "})
		_, err := s.service.HandleCallback(ctx, testSID, data)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalAuthFailed))
	})

	s.Run("no pending context", func() {
		ticket := s.initiate()
		s.Require().NoError(s.pending.Delete(ctx, testSID))
		_, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
		s.True(dErrors.HasCode(err, dErrors.CodeAuthFlowExpired))
	})

	s.Run("ticket bound to a different client", func() {
		s.initiate()
		data := s.successEnvelope("nonce_other-client")
		_, err := s.service.HandleCallback(ctx, testSID, data)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionValidationFailed))
	})

	s.Run("well-shaped ticket that does not match stored state", func() {
		s.initiate()
		data := s.successEnvelope("forged-nonce_demo-client")
		_, err := s.service.HandleCallback(ctx, testSID, data)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionValidationFailed))
	})

	s.Run("ticket for another browser session", func() {
		ticket := s.initiate()
		_, err := s.service.HandleCallback(ctx, "other-sid", s.successEnvelope(ticket))
		s.True(dErrors.HasCode(err, dErrors.CodeAuthFlowExpired))
	})
}

func (s *BridgeServiceSuite) TestHandleCallbackIdentityResolution() {
	ctx := context.Background()

	s.Run("identity API failure consumes the ticket", func() {
		ticket := s.initiate()
		s.resolver.resp = extapi.UserInfoResponse{StatusCode: "9002", StatusDesc: "unknown token"}

		_, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
		s.True(dErrors.HasCode(err, dErrors.CodeExternalAPIFailed))

		// The same callback cannot be replayed to retry resolution.
		_, err = s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
		s.True(dErrors.HasCode(err, dErrors.CodeAuthFlowExpired))
	})

	s.Run("success without customer ID", func() {
		ticket := s.initiate()
		s.resolver.resp = extapi.UserInfoResponse{StatusCode: "0000", CustomerID: ""}

		_, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
		s.True(dErrors.HasCode(err, dErrors.CodeMissingCustomerID))

		_, secErr := s.security.Get(ctx, testSID)
		s.ErrorIs(secErr, sentinel.ErrNotFound, "no principal on failed resolution")
	})
}

func (s *BridgeServiceSuite) TestHandleCallbackSuccess() {
	ctx := context.Background()
	authTime := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	ctx = requestcontext.WithTime(ctx, authTime)

	ticket := s.initiate()
	target, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
	s.Require().NoError(err)

	s.Run("resumes the suspended request", func() {
		parsed, err := url.Parse(target)
		s.Require().NoError(err)
		s.Equal(AuthorizePath, parsed.Path)
		s.Equal("demo-client", parsed.Query().Get("client_id"))
		s.Equal("xyz", parsed.Query().Get("state"))
	})

	s.Run("establishes the principal", func() {
		principal, err := s.security.Get(ctx, testSID)
		s.Require().NoError(err)
		s.Equal("CUST-1", principal.CustomerID)
		s.Equal(authTime, principal.AuthTime)
		s.Equal(ticket, principal.ExternalSession)
		s.Equal("tok-1", principal.ExternalToken)
	})

	s.Run("removes the suspended request", func() {
		_, err := s.saved.Get(ctx, testSID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("replayed callback is rejected", func() {
		_, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
		s.True(dErrors.HasCode(err, dErrors.CodeAuthFlowExpired))
		s.Equal(1, s.resolver.calls, "no second identity call")
	})
}

func (s *BridgeServiceSuite) TestResumeTargetRebuild() {
	ctx := context.Background()

	s.Run("missing suspended request rebuilds the authorize URL", func() {
		ticket := s.initiate()
		s.Require().NoError(s.saved.Remove(ctx, testSID))

		target, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(ticket))
		s.Require().NoError(err)
		s.Equal(
			AuthorizePath+"?response_type=code"+
				"&client_id=demo-client"+
				"&redirect_uri="+url.QueryEscape("https://client.example/cb")+
				"&scope="+url.QueryEscape("openid profile")+
				"&state=xyz",
			target,
			"rebuilt URL uses the fixed parameter order",
		)
	})

	s.Run("suspended request pointing at the error page is not replayed", func() {
		s.suspendAuthorize("demo-client")
		prompt, err := s.service.InitiateLogin(ctx, testSID, testBase)
		s.Require().NoError(err)
		s.Require().NoError(s.saved.Save(ctx, testSID, models.SavedRequest{
			Method: "GET",
			Path:   "/error",
			Query:  url.Values{"code": {"internal"}},
		}))

		target, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(prompt.ExternalSession))
		s.Require().NoError(err)
		s.True(strings.HasPrefix(target, AuthorizePath+"?response_type=code"))
	})

	s.Run("rebuild omits absent optional parameters", func() {
		s.Require().NoError(s.saved.Save(ctx, testSID, models.SavedRequest{
			Method: "GET",
			Path:   AuthorizePath,
			Query:  url.Values{"client_id": {"demo-client"}},
		}))
		prompt, err := s.service.InitiateLogin(ctx, testSID, testBase)
		s.Require().NoError(err)
		s.Require().NoError(s.saved.Remove(ctx, testSID))

		target, err := s.service.HandleCallback(ctx, testSID, s.successEnvelope(prompt.ExternalSession))
		s.Require().NoError(err)
		s.Equal(AuthorizePath+"?response_type=code&client_id=demo-client", target)
	})
}
