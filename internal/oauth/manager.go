package oauth

import (
	"context"

	"golang.org/x/oauth2"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// Manager binds the token cache to sessions.
type Manager struct {
	client *Client
}

// NewManager creates a token manager on top of the given client.
func NewManager(client *Client) *Manager {
	return &Manager{client: client}
}

// Client returns the underlying OAuth client.
func (m *Manager) Client() *Client {
	return m.client
}

// Token returns a usable access token for the session, or nil when the user
// must sign in again. The session's cache is rewritten whatever the outcome,
// so a rotated refresh token is never lost.
func (m *Manager) Token(ctx context.Context, sess *session.Session, scopes []string) *oauth2.Token {
	cache, err := DeserializeTokenCache(sess.TokenCache)
	if err != nil {
		logging.Warn("OAuth", "Discarding unreadable token cache for session=%s: %v",
			logging.TruncateSessionID(sess.ID), err)
		cache = &TokenCache{}
	}

	token, err := m.client.AcquireTokenSilent(ctx, cache, scopes)

	if blob, serr := cache.Serialize(); serr != nil {
		logging.Error("OAuth", serr, "Failed to serialize token cache for session=%s", logging.TruncateSessionID(sess.ID))
	} else {
		sess.TokenCache = blob
	}

	if err != nil {
		logging.Info("OAuth", "Silent token acquisition failed for session=%s: %v",
			logging.TruncateSessionID(sess.ID), err)
		return nil
	}
	return token
}
