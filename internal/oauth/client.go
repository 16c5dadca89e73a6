package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// defaultHTTPTimeout bounds calls to the identity provider.
const defaultHTTPTimeout = 30 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	// Authority is the tenant authority, e.g. https://login.microsoftonline.com/{tenant}.
	Authority string
	// Scopes are the resource scopes to request; reserved OIDC scopes are added automatically.
	Scopes []string
	// HTTPClient is used for token requests. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Client handles the authorization-code flow against an Entra ID tenant.
type Client struct {
	clientID   string
	authority  string
	scopes     []string
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewClient creates a new OAuth client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	authority := strings.TrimSuffix(cfg.Authority, "/")

	requested := slices.Clone(cfg.Scopes)
	for _, s := range reservedScopes {
		if !slices.Contains(requested, s) {
			requested = append(requested, s)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Client{
		clientID:  cfg.ClientID,
		authority: authority,
		scopes:    slices.Clone(cfg.Scopes),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       requested,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authority + "/oauth2/v2.0/authorize",
				TokenURL:  authority + "/oauth2/v2.0/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// Scopes returns the configured resource scopes, without the reserved OIDC scopes.
func (c *Client) Scopes() []string {
	return slices.Clone(c.scopes)
}

// withHTTPClient makes x/oauth2 use our HTTP client.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// configFor returns a copy of the oauth2 config bound to the redirect URI.
func (c *Client) configFor(redirectURI string) *oauth2.Config {
	cfg := *c.oauth
	cfg.RedirectURL = redirectURI
	return &cfg
}

// AuthCodeURL builds the authorization URL for a pending login.
func (c *Client) AuthCodeURL(p *session.PendingLogin, redirectURI string) string {
	return c.configFor(redirectURI).AuthCodeURL(p.State,
		oauth2.S256ChallengeOption(p.CodeVerifier),
		oauth2.SetAuthURLParam("nonce", p.Nonce),
	)
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*oauth2.Token, error) {
	token, err := c.configFor(redirectURI).Exchange(c.withHTTPClient(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	logging.Debug("OAuth", "Successfully exchanged code for token (expires=%s)", token.Expiry.Format(time.RFC3339))
	return token, nil
}

// ParseIDToken extracts the ID token claims from a token response. The token
// comes straight from the token endpoint over TLS, so only the audience and
// nonce are checked.
func (c *Client) ParseIDToken(token *oauth2.Token, nonce string) (session.Claims, error) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", ErrInvalidIDToken)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	aud, err := claims.GetAudience()
	if err != nil || !slices.Contains([]string(aud), c.clientID) {
		return nil, fmt.Errorf("%w: audience does not match client id", ErrInvalidIDToken)
	}

	if got, _ := claims["nonce"].(string); got != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrInvalidIDToken)
	}

	return session.Claims(claims), nil
}

// LogoutURL returns the provider's end-session URL that redirects back to postLogoutRedirect.
func (c *Client) LogoutURL(postLogoutRedirect string) string {
	return c.authority + "/oauth2/v2.0/logout?post_logout_redirect_uri=" + url.QueryEscape(postLogoutRedirect)
}

// ErrorDescription returns the provider's error_description from a failed token
// request, falling back to the error text.
func ErrorDescription(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorDescription != "" {
			return re.ErrorDescription
		}
		if re.ErrorCode != "" {
			return re.ErrorCode
		}
	}
	return err.Error()
}
