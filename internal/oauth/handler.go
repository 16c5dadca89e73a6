package oauth

import (
	"errors"
	"net/http"
	"time"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// PageRenderer renders the login page, optionally with an error message.
type PageRenderer interface {
	RenderLogin(w http.ResponseWriter, r *http.Request, errMsg string)
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Client   *Client
	Sessions *session.Manager
	Pages    PageRenderer

	// BaseURL returns the externally visible base URL (scheme://host) for a request.
	BaseURL func(r *http.Request) string

	// RedirectPath is the callback path registered with the provider.
	RedirectPath string

	// PendingLoginTTL bounds the time between /login and the callback. Zero disables the check.
	PendingLoginTTL time.Duration

	// ChatPath is where a completed login lands.
	ChatPath string
}

// Handler provides the login, callback and logout endpoints.
type Handler struct {
	cfg HandlerConfig
}

// NewHandler creates a new OAuth HTTP handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.ChatPath == "" {
		cfg.ChatPath = "/chat"
	}
	return &Handler{cfg: cfg}
}

func (h *Handler) redirectURI(r *http.Request) string {
	return h.cfg.BaseURL(r) + h.cfg.RedirectPath
}

// HandleLogin starts a new login attempt and redirects to the provider.
// Any earlier pending attempt in the same session is overwritten.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess := h.cfg.Sessions.Load(r)

	pending, err := NewPendingLogin()
	if err != nil {
		logging.Error("OAuth", err, "Failed to start login")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sess.Pending = pending

	if err := h.cfg.Sessions.Save(r.Context(), w, sess); err != nil {
		logging.Error("OAuth", err, "Failed to save session=%s", logging.TruncateSessionID(sess.ID))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logging.Debug("OAuth", "Redirecting session=%s to identity provider", logging.TruncateSessionID(sess.ID))
	http.Redirect(w, r, h.cfg.Client.AuthCodeURL(pending, h.redirectURI(r)), http.StatusFound)
}

// HandleCallback handles the redirect back from the identity provider.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	stateParam := query.Get("state")
	errorParam := query.Get("error")
	errorDesc := query.Get("error_description")

	sess := h.cfg.Sessions.Load(r)
	pending := sess.Pending
	// The pending login is single-use whatever happens below.
	sess.Pending = nil

	if err := ValidateState(pending, stateParam, h.cfg.PendingLoginTTL); err != nil {
		logging.Warn("OAuth", "State mismatch on callback for session=%s, possible CSRF: %v",
			logging.TruncateSessionID(sess.ID), err)
		h.save(w, r, sess)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if errorParam != "" {
		logging.Warn("OAuth", "OAuth callback received error: %s - %s", errorParam, errorDesc)
		h.save(w, r, sess)
		h.cfg.Pages.RenderLogin(w, r, errorDesc)
		return
	}

	if code == "" {
		h.save(w, r, sess)
		http.Redirect(w, r, h.cfg.ChatPath, http.StatusFound)
		return
	}

	token, err := h.cfg.Client.ExchangeCode(r.Context(), code, pending.CodeVerifier, h.redirectURI(r))
	if err != nil {
		logging.Error("OAuth", err, "Failed to exchange authorization code")
		h.save(w, r, sess)
		h.cfg.Pages.RenderLogin(w, r, ErrorDescription(err))
		return
	}

	claims, err := h.cfg.Client.ParseIDToken(token, pending.Nonce)
	if err != nil {
		logging.Error("OAuth", err, "Rejected ID token for session=%s", logging.TruncateSessionID(sess.ID))
		h.save(w, r, sess)
		h.cfg.Pages.RenderLogin(w, r, "Sign-in failed: the identity token could not be validated.")
		return
	}

	cache, err := DeserializeTokenCache(sess.TokenCache)
	if err != nil {
		cache = &TokenCache{}
	}
	cache.Add(token, claims, h.cfg.Client.Scopes())
	blob, err := cache.Serialize()
	if err != nil {
		logging.Error("OAuth", err, "Failed to serialize token cache")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess.User = claims
	sess.TokenCache = blob
	// A new ID on sign-in keeps a pre-login cookie from riding into the authenticated session.
	if err := h.cfg.Sessions.Renew(r.Context(), w, sess); err != nil {
		logging.Error("OAuth", err, "Failed to save session=%s", logging.TruncateSessionID(sess.ID))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logging.Audit(logging.AuditEvent{
		Action:    "LOGIN SUCCESS",
		Outcome:   "success",
		User:      claims.Username(),
		SessionID: sess.ID,
	})

	http.Redirect(w, r, h.cfg.ChatPath, http.StatusFound)
}

// HandleLogout clears the session and sends the browser to the provider's logout endpoint.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := h.cfg.Sessions.Load(r)

	user := "unknown"
	if sess.Authenticated() {
		user = sess.User.Username()
	}
	logging.Audit(logging.AuditEvent{
		Action:    "LOGOUT",
		Outcome:   "success",
		User:      user,
		SessionID: sess.ID,
	})

	if err := h.cfg.Sessions.Destroy(r.Context(), w, sess); err != nil && !errors.Is(err, session.ErrNotFound) {
		logging.Error("OAuth", err, "Failed to delete session=%s", logging.TruncateSessionID(sess.ID))
	}

	http.Redirect(w, r, h.cfg.Client.LogoutURL(h.cfg.BaseURL(r)+"/"), http.StatusFound)
}

// save persists the session after a failed callback so the consumed state sticks.
// A session created by this request has nothing to persist.
func (h *Handler) save(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if sess.IsNew() {
		return
	}
	if err := h.cfg.Sessions.Save(r.Context(), w, sess); err != nil {
		logging.Error("OAuth", err, "Failed to save session=%s", logging.TruncateSessionID(sess.ID))
	}
}
