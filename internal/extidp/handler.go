package extidp

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"authbridge/internal/bridge/codec"
	"authbridge/pkg/platform/sentinel"
)

// API status codes mirrored from the provider contract.
const (
	statusSuccess       = "0000"
	statusMissingParams = "9001"
	statusUnknownToken  = "9002"
)

// TestCustomerID is the identity issued by the auto test-login endpoint.
const TestCustomerID = "CUST-TEST-0001"

var loginPageTmpl = template.Must(template.New("extlogin").Parse(`<!DOCTYPE html>
<html>
<head><title>Provider sign-in</title></head>
<body>
<h1>Provider sign-in</h1>
<form method="post" action="/provider/login">
<input type="hidden" name="session" value="{{.Session}}">
<input type="hidden" name="callback_url" value="{{.CallbackURL}}">
<label>Customer ID <input type="text" name="customer_id"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`))

// Handler serves the stand-in provider surface under a path prefix.
type Handler struct {
	logger *slog.Logger
	store  CorrelationStore
}

func New(store CorrelationStore, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, store: store}
}

// Register registers the provider routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	providerRouter := chi.NewRouter()
	providerRouter.Get("/login", h.handleLoginPage)
	providerRouter.Post("/login", h.handleLoginSubmit)
	providerRouter.Get("/test-login", h.handleTestLogin)
	providerRouter.Post("/api/userinfo", h.handleUserInfo)
	providerRouter.Get("/health", h.handleHealth)

	r.Mount("/provider", providerRouter)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	callbackURL := r.URL.Query().Get("callback_url")
	if session == "" || callbackURL == "" {
		http.Error(w, "session and callback_url are required", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPageTmpl.Execute(w, struct {
		Session     string
		CallbackURL string
	}{Session: session, CallbackURL: callbackURL})
}

func (h *Handler) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "unparseable form", http.StatusBadRequest)
		return
	}
	h.completeLogin(w, r,
		r.PostForm.Get("session"),
		r.PostForm.Get("callback_url"),
		r.PostForm.Get("customer_id"),
	)
}

// handleTestLogin signs in a fixed test customer without a form round-trip.
func (h *Handler) handleTestLogin(w http.ResponseWriter, r *http.Request) {
	h.completeLogin(w, r,
		r.URL.Query().Get("session"),
		r.URL.Query().Get("callback_url"),
		TestCustomerID,
	)
}

// completeLogin issues a token for the customer and bounces the browser back
// to the bridge with the encoded callback envelope.
func (h *Handler) completeLogin(w http.ResponseWriter, r *http.Request, session, callbackURL, customerID string) {
	ctx := r.Context()
	if session == "" || callbackURL == "" || customerID == "" {
		http.Error(w, "session, callback_url and customer_id are required", http.StatusBadRequest)
		return
	}
	if _, err := url.ParseRequestURI(callbackURL); err != nil {
		http.Error(w, "callback_url is not a valid URL", http.StatusBadRequest)
		return
	}

	token := uuid.NewString()
	if err := h.store.PutToken(ctx, token, customerID); err != nil {
		h.logger.ErrorContext(ctx, "failed to store token binding", "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data, err := codec.Encode(codec.Envelope{
		StatusCode: statusSuccess,
		StatusDesc: "success",
		Session:    session,
		Token:      token,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode callback envelope", "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, callbackURL+"?data="+url.QueryEscape(data), http.StatusFound)
}

type userInfoRequest struct {
	PlatformID string `json:"platformId"`
	Token      string `json:"token"`
}

type userInfoResponse struct {
	StatusCode string `json:"statusCode"`
	StatusDesc string `json:"statusDesc"`
	CustomerID string `json:"customerId,omitempty"`
}

func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req userInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeUserInfo(w, userInfoResponse{StatusCode: statusMissingParams, StatusDesc: "unreadable request"})
		return
	}
	if req.PlatformID == "" || req.Token == "" {
		h.writeUserInfo(w, userInfoResponse{StatusCode: statusMissingParams, StatusDesc: "platformId and token are required"})
		return
	}

	customerID, err := h.store.CustomerForToken(ctx, req.Token)
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		h.writeUserInfo(w, userInfoResponse{StatusCode: statusUnknownToken, StatusDesc: "unknown or expired token"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "token lookup failed", "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeUserInfo(w, userInfoResponse{
		StatusCode: statusSuccess,
		StatusDesc: "success",
		CustomerID: customerID,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) writeUserInfo(w http.ResponseWriter, resp userInfoResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
