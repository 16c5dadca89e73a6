package oauth

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"chatgate/internal/session"
)

func TestNewPendingLogin(t *testing.T) {
	a, err := NewPendingLogin()
	require.NoError(t, err)
	b, err := NewPendingLogin()
	require.NoError(t, err)

	assert.NotEmpty(t, a.State)
	assert.NotEmpty(t, a.Nonce)
	assert.NotEmpty(t, a.CodeVerifier)
	assert.NotEqual(t, a.State, b.State)
	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.State, a.Nonce)
	assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Second)
}

func TestValidateState(t *testing.T) {
	fresh := &session.PendingLogin{State: "abc", CreatedAt: time.Now()}
	old := &session.PendingLogin{State: "abc", CreatedAt: time.Now().Add(-time.Hour)}

	tests := []struct {
		name    string
		pending *session.PendingLogin
		state   string
		maxAge  time.Duration
		wantErr bool
	}{
		{name: "match", pending: fresh, state: "abc", maxAge: time.Minute},
		{name: "mismatch", pending: fresh, state: "abd", maxAge: time.Minute, wantErr: true},
		{name: "nothing pending", pending: nil, state: "abc", wantErr: true},
		{name: "empty returned state", pending: fresh, state: "", wantErr: true},
		{name: "both empty", pending: &session.PendingLogin{}, state: "", wantErr: true},
		{name: "expired", pending: old, state: "abc", maxAge: time.Minute, wantErr: true},
		{name: "no max age", pending: old, state: "abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateState(tc.pending, tc.state, tc.maxAge)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrStateMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClient_AuthCodeURL(t *testing.T) {
	c := NewClient(ClientConfig{
		ClientID:  testClientID,
		Authority: "https://login.microsoftonline.com/" + testTenant + "/",
		Scopes:    []string{"User.Read"},
	})
	p := &session.PendingLogin{State: "st", Nonce: "nn", CodeVerifier: oauth2.GenerateVerifier()}

	raw := c.AuthCodeURL(p, "http://localhost:5000/getAToken")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "login.microsoftonline.com", u.Host)
	assert.Equal(t, "/"+testTenant+"/oauth2/v2.0/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, "http://localhost:5000/getAToken", q.Get("redirect_uri"))
	assert.Equal(t, "st", q.Get("state"))
	assert.Equal(t, "nn", q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(p.CodeVerifier), q.Get("code_challenge"))
	assert.ElementsMatch(t, []string{"User.Read", "openid", "profile", "offline_access"}, strings.Fields(q.Get("scope")))

	assert.Equal(t, []string{"User.Read"}, c.Scopes())
}

func TestClient_ExchangeCode(t *testing.T) {
	idp := newFakeIdP(t)
	idp.setNonce("nonce-1")
	c := newTestClient(t, idp)

	tok, err := c.ExchangeCode(t.Context(), "the-code", "the-verifier", "http://localhost/getAToken")
	require.NoError(t, err)
	assert.Equal(t, "access-initial", tok.AccessToken)
	assert.Equal(t, "refresh-initial", tok.RefreshToken)

	form := idp.lastRequest()
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "the-verifier", form.Get("code_verifier"))
	assert.Equal(t, testClientID, form.Get("client_id"))
	assert.Equal(t, "secret", form.Get("client_secret"))
	assert.Equal(t, "http://localhost/getAToken", form.Get("redirect_uri"))

	claims, err := c.ParseIDToken(tok, "nonce-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Example", claims.DisplayName())
	assert.Equal(t, "alice@example.com", claims.Username())
}

func TestClient_ExchangeCode_ProviderError(t *testing.T) {
	idp := newFakeIdP(t)
	idp.fail("invalid_grant", "AADSTS70008: The provided authorization code has expired.")
	c := newTestClient(t, idp)

	_, err := c.ExchangeCode(t.Context(), "stale", "v", "http://localhost/getAToken")
	require.Error(t, err)
	assert.Equal(t, "AADSTS70008: The provided authorization code has expired.", ErrorDescription(err))
}

func TestErrorDescription_PlainError(t *testing.T) {
	assert.Equal(t, "boom", ErrorDescription(errors.New("boom")))
}

func TestClient_ParseIDToken_Rejects(t *testing.T) {
	c := NewClient(ClientConfig{ClientID: testClientID, Authority: "https://login.example.com/t"})

	tests := []struct {
		name  string
		token *oauth2.Token
		nonce string
	}{
		{
			name:  "no id token",
			token: &oauth2.Token{AccessToken: "a"},
			nonce: "n",
		},
		{
			name:  "garbage",
			token: (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "not-a-jwt"}),
			nonce: "n",
		},
		{
			name:  "wrong audience",
			token: (&oauth2.Token{}).WithExtra(map[string]any{"id_token": signIDToken("someone-else", "n")}),
			nonce: "n",
		},
		{
			name:  "wrong nonce",
			token: (&oauth2.Token{}).WithExtra(map[string]any{"id_token": signIDToken(testClientID, "other")}),
			nonce: "n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ParseIDToken(tc.token, tc.nonce)
			assert.ErrorIs(t, err, ErrInvalidIDToken)
		})
	}
}

func TestClient_LogoutURL(t *testing.T) {
	c := NewClient(ClientConfig{Authority: "https://login.microsoftonline.com/" + testTenant})

	got := c.LogoutURL("http://localhost:5000/")
	assert.Equal(t,
		"https://login.microsoftonline.com/"+testTenant+"/oauth2/v2.0/logout?post_logout_redirect_uri=http%3A%2F%2Flocalhost%3A5000%2F",
		got)
}
