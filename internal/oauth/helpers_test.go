package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "client-123"
	testTenant   = "tenant-abc"
)

// fakeIdP serves the token endpoint of a single tenant.
type fakeIdP struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  []url.Values
	nonce     string
	expiresIn int
	scope     string
	failCode  string
	failDesc  string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	f := &fakeIdP{expiresIn: 3600, scope: "User.Read openid profile offline_access"}
	mux := http.NewServeMux()
	mux.HandleFunc("/"+testTenant+"/oauth2/v2.0/token", f.handleToken)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIdP) authority() string {
	return f.srv.URL + "/" + testTenant
}

func (f *fakeIdP) setNonce(nonce string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonce = nonce
}

func (f *fakeIdP) fail(code, desc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCode, f.failDesc = code, desc
}

func (f *fakeIdP) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeIdP) lastRequest() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeIdP) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, r.PostForm)
	nonce, expiresIn, scope := f.nonce, f.expiresIn, f.scope
	failCode, failDesc := f.failCode, f.failDesc
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failCode != "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             failCode,
			"error_description": failDesc,
		})
		return
	}

	resp := map[string]any{
		"token_type": "Bearer",
		"expires_in": expiresIn,
		"scope":      scope,
	}
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		resp["access_token"] = "access-initial"
		resp["refresh_token"] = "refresh-initial"
		resp["id_token"] = signIDToken(testClientID, nonce)
	case "refresh_token":
		resp["access_token"] = "access-refreshed"
		resp["refresh_token"] = "refresh-rotated"
	default:
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unsupported_grant_type"})
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// signIDToken builds an ID token. The signature is not checked by the client.
func signIDToken(aud, nonce string) string {
	claims := jwt.MapClaims{
		"aud":                aud,
		"iss":                "https://login.example.com/" + testTenant + "/v2.0",
		"nonce":              nonce,
		"name":               "Alice Example",
		"preferred_username": "alice@example.com",
		"oid":                "oid-1",
		"tid":                testTenant,
		"exp":                time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("idp-key"))
	if err != nil {
		panic(err)
	}
	return s
}

func newTestClient(t *testing.T, idp *fakeIdP) *Client {
	t.Helper()
	c := NewClient(ClientConfig{
		ClientID:     testClientID,
		ClientSecret: "secret",
		Authority:    idp.authority(),
		Scopes:       []string{"User.Read"},
		HTTPClient:   idp.srv.Client(),
	})
	require.NotNil(t, c)
	return c
}
