package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// CachedAccount is one signed-in account and its current tokens.
type CachedAccount struct {
	// HomeAccountID is "{oid}.{tid}" from the ID token.
	HomeAccountID string    `json:"home_account_id"`
	Username      string    `json:"username,omitempty"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	IDToken       string    `json:"id_token,omitempty"`
	TokenType     string    `json:"token_type,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
	// Scopes are the scopes the access token was granted for.
	Scopes []string `json:"scopes,omitempty"`
}

// token converts the cached account to an oauth2 token.
func (a *CachedAccount) token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  a.AccessToken,
		TokenType:    a.TokenType,
		RefreshToken: a.RefreshToken,
		Expiry:       a.ExpiresAt,
	}
}

// valid reports whether the access token is present and outlives the expiry margin.
func (a *CachedAccount) valid(now time.Time) bool {
	if a.AccessToken == "" {
		return false
	}
	if a.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(tokenExpiryMargin).Before(a.ExpiresAt)
}

// update stores a token response, keeping the previous refresh and ID token
// when the response omits them.
func (a *CachedAccount) update(tok *oauth2.Token, requested []string) {
	a.AccessToken = tok.AccessToken
	a.TokenType = tok.TokenType
	a.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		a.RefreshToken = tok.RefreshToken
	}
	if id, _ := tok.Extra("id_token").(string); id != "" {
		a.IDToken = id
	}
	a.Scopes = grantedScopes(tok, requested)
}

// TokenCache is the per-session token cache. It travels inside the session as
// an opaque serialized string.
type TokenCache struct {
	Entries []CachedAccount `json:"accounts"`
}

// DeserializeTokenCache restores a cache. An empty blob gives an empty cache.
func DeserializeTokenCache(blob string) (*TokenCache, error) {
	c := &TokenCache{}
	if blob == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(blob), c); err != nil {
		return nil, fmt.Errorf("failed to decode token cache: %w", err)
	}
	return c, nil
}

// Serialize encodes the cache. An empty cache serializes to "".
func (c *TokenCache) Serialize() (string, error) {
	if len(c.Entries) == 0 {
		return "", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode token cache: %w", err)
	}
	return string(b), nil
}

// Accounts returns the cached accounts.
func (c *TokenCache) Accounts() []CachedAccount {
	return slices.Clone(c.Entries)
}

// Add stores the token for the account identified by the claims, replacing any
// previous entry for the same account.
func (c *TokenCache) Add(tok *oauth2.Token, claims session.Claims, requested []string) {
	acct := CachedAccount{
		HomeAccountID: homeAccountID(claims),
		Username:      claims.String("preferred_username"),
	}
	acct.update(tok, requested)

	for i := range c.Entries {
		if c.Entries[i].HomeAccountID == acct.HomeAccountID {
			c.Entries[i] = acct
			return
		}
	}
	c.Entries = append(c.Entries, acct)
}

func homeAccountID(claims session.Claims) string {
	oid, tid := claims.String("oid"), claims.String("tid")
	if oid == "" {
		oid = claims.String("sub")
	}
	if tid == "" {
		return oid
	}
	return oid + "." + tid
}

// grantedScopes reads the scope field of the token response. Providers may
// omit it when the grant matches the request, in which case the requested
// scopes are assumed.
func grantedScopes(tok *oauth2.Token, requested []string) []string {
	if s, _ := tok.Extra("scope").(string); s != "" {
		return strings.Fields(s)
	}
	return slices.Clone(requested)
}

// scopesCovered reports whether every requested scope is in the granted set.
// Reserved OIDC scopes are ignored, case does not matter, and a
// resource-qualified grant such as "https://graph.microsoft.com/User.Read"
// covers "User.Read".
func scopesCovered(granted, requested []string) bool {
	for _, want := range requested {
		if slices.Contains(reservedScopes, strings.ToLower(want)) {
			continue
		}
		if !slices.ContainsFunc(granted, func(have string) bool {
			return strings.EqualFold(have, want) ||
				strings.HasSuffix(strings.ToLower(have), "/"+strings.ToLower(want))
		}) {
			return false
		}
	}
	return true
}

// AcquireTokenSilent returns a usable access token for the first cached
// account without user interaction. An empty cache yields (nil, nil) and no
// network call. A still-valid token is returned as is; otherwise the refresh
// token is redeemed and the cache updated in place.
func (c *Client) AcquireTokenSilent(ctx context.Context, cache *TokenCache, scopes []string) (*oauth2.Token, error) {
	if len(cache.Entries) == 0 {
		return nil, nil
	}
	acct := &cache.Entries[0]

	if !scopesCovered(acct.Scopes, scopes) {
		return nil, fmt.Errorf("%w: cached grant does not cover %v", ErrInteractionRequired, scopes)
	}

	if acct.valid(time.Now()) {
		return acct.token(), nil
	}

	if acct.RefreshToken == "" {
		return nil, fmt.Errorf("%w: access token expired and no refresh token cached", ErrInteractionRequired)
	}

	// An empty access token forces the token source to refresh.
	src := c.oauth.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: acct.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	acct.update(tok, acct.Scopes)
	logging.Debug("OAuth", "Refreshed access token for account=%s (expires=%s)",
		acct.Username, tok.Expiry.Format(time.RFC3339))

	return acct.token(), nil
}
