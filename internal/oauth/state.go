package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"chatgate/internal/session"
)

// randomToken returns n random bytes encoded as unpadded base64url.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewPendingLogin creates fresh state, nonce and PKCE verifier for one login attempt.
func NewPendingLogin() (*session.PendingLogin, error) {
	state, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return &session.PendingLogin{
		State:        state,
		Nonce:        nonce,
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateState checks the callback state against the pending login. A nil
// pending login, an empty state, a different value, or an expired attempt
// all fail with ErrStateMismatch.
func ValidateState(pending *session.PendingLogin, state string, maxAge time.Duration) error {
	if pending == nil || pending.State == "" || state == "" {
		return fmt.Errorf("%w: no login in progress", ErrStateMismatch)
	}
	if subtle.ConstantTimeCompare([]byte(pending.State), []byte(state)) != 1 {
		return ErrStateMismatch
	}
	if maxAge > 0 && time.Since(pending.CreatedAt) > maxAge {
		return fmt.Errorf("%w: login attempt expired after %v", ErrStateMismatch, maxAge)
	}
	return nil
}
