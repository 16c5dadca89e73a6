package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeToResource(t *testing.T) {
	assert.Equal(t, "https://vault.azure.net", ScopeToResource("https://vault.azure.net/.default"))
	assert.Equal(t, "https://example.com", ScopeToResource("https://example.com"))
}

func TestProvider_AppServiceEndpoint(t *testing.T) {
	var calls atomic.Int32
	expiresOn := time.Now().Add(time.Hour).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "secret-header", r.Header.Get("X-IDENTITY-HEADER"))
		assert.Equal(t, "https://cognitiveservices.azure.com", r.URL.Query().Get("resource"))
		assert.Equal(t, appServiceAPIVersion, r.URL.Query().Get("api-version"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"mi-token","token_type":"Bearer","expires_on":"` +
			strconv.FormatInt(expiresOn, 10) + `"}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{Endpoint: srv.URL, Header: "secret-header"})

	tok, err := p.Token(context.Background(), "https://cognitiveservices.azure.com/.default")
	require.NoError(t, err)
	assert.Equal(t, "mi-token", tok.AccessToken)
	assert.Equal(t, expiresOn, tok.Expiry.Unix())

	// Second call is served from the reuse cache.
	_, err = p.Token(context.Background(), "https://cognitiveservices.azure.com/.default")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProvider_IMDSFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.Header.Get("Metadata"))
		assert.Equal(t, imdsAPIVersion, r.URL.Query().Get("api-version"))
		_, _ = w.Write([]byte(`{"access_token":"imds-token","expires_in":"3600"}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{IMDSEndpoint: srv.URL})

	tok, err := p.Token(context.Background(), "https://vault.azure.net/.default")
	require.NoError(t, err)
	assert.Equal(t, "imds-token", tok.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, time.Minute)
}

func TestProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewProvider(Config{Endpoint: srv.URL})

	_, err := p.Token(context.Background(), "https://cognitiveservices.azure.com/.default")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewProvider(Config{Endpoint: url, HTTPClient: &http.Client{Timeout: time.Second}})

	_, err := p.Token(context.Background(), "https://cognitiveservices.azure.com/.default")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestProvider_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":""}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{Endpoint: srv.URL})
	_, err := p.Token(context.Background(), "https://cognitiveservices.azure.com/.default")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestConfigFromEnv(t *testing.T) {
	env := map[string]string{"IDENTITY_ENDPOINT": "http://localhost:4141/msi/token", "IDENTITY_HEADER": "h"}
	cfg := ConfigFromEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	assert.Equal(t, "http://localhost:4141/msi/token", cfg.Endpoint)
	assert.Equal(t, "h", cfg.Header)
}
