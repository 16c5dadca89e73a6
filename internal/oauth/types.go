package oauth

import (
	"errors"
	"time"
)

var (
	// ErrStateMismatch means the callback's state does not match the pending login.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrInvalidIDToken means the ID token is missing or its claims do not check out.
	ErrInvalidIDToken = errors.New("invalid id token")

	// ErrInteractionRequired means no cached token can satisfy the request
	// without sending the user through the login flow again.
	ErrInteractionRequired = errors.New("interaction required")
)

// tokenExpiryMargin is the margin added when checking token expiration.
// This accounts for clock skew between systems and network latency.
const tokenExpiryMargin = 30 * time.Second

// reservedScopes are always requested so the provider returns an ID token and
// a refresh token. They are not checked when matching cached scopes.
var reservedScopes = []string{"openid", "profile", "offline_access"}
