package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"chatgate/pkg/logging"
)

const (
	// imdsEndpoint is the instance metadata service used when the App Service
	// identity endpoint is not available.
	imdsEndpoint   = "http://169.254.169.254/metadata/identity/oauth2/token"
	imdsAPIVersion = "2018-02-01"

	appServiceAPIVersion = "2019-08-01"

	// DefaultHTTPTimeout bounds a single token request.
	DefaultHTTPTimeout = 10 * time.Second
)

// ErrUnavailable is returned when the platform identity service cannot issue a token.
var ErrUnavailable = errors.New("managed identity unavailable")

// Config configures the managed identity provider.
type Config struct {
	// Endpoint and Header come from IDENTITY_ENDPOINT and IDENTITY_HEADER on
	// App Service. When Endpoint is empty the provider falls back to IMDS.
	Endpoint string
	Header   string

	// IMDSEndpoint overrides the instance metadata URL (tests).
	IMDSEndpoint string

	HTTPClient *http.Client
}

// ConfigFromEnv reads the App Service identity variables.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	endpoint, _ := lookup("IDENTITY_ENDPOINT")
	header, _ := lookup("IDENTITY_HEADER")
	return Config{Endpoint: endpoint, Header: header}
}

// Provider issues short-lived bearer tokens for the process's managed identity.
// Token sources are cached per resource and reuse tokens until they expire.
type Provider struct {
	cfg        Config
	httpClient *http.Client

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource

	// group dedupes concurrent fetches for the same resource.
	group singleflight.Group
}

// NewProvider creates a managed identity provider.
func NewProvider(cfg Config) *Provider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if cfg.IMDSEndpoint == "" {
		cfg.IMDSEndpoint = imdsEndpoint
	}
	return &Provider{
		cfg:        cfg,
		httpClient: httpClient,
		sources:    make(map[string]oauth2.TokenSource),
	}
}

// TokenSource returns a caching token source for the given scope, for example
// "https://cognitiveservices.azure.com/.default".
func (p *Provider) TokenSource(ctx context.Context, scope string) oauth2.TokenSource {
	resource := ScopeToResource(scope)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ts, ok := p.sources[resource]; ok {
		return ts
	}
	ts := oauth2.ReuseTokenSource(nil, &resourceTokenSource{
		ctx:      context.WithoutCancel(ctx),
		provider: p,
		resource: resource,
	})
	p.sources[resource] = ts
	return ts
}

// Token fetches a token for scope, using the cached source.
func (p *Provider) Token(ctx context.Context, scope string) (*oauth2.Token, error) {
	return p.TokenSource(ctx, scope).Token()
}

type resourceTokenSource struct {
	ctx      context.Context
	provider *Provider
	resource string
}

func (s *resourceTokenSource) Token() (*oauth2.Token, error) {
	result, err, _ := s.provider.group.Do(s.resource, func() (interface{}, error) {
		return s.provider.fetch(s.ctx, s.resource)
	})
	if err != nil {
		return nil, err
	}
	return result.(*oauth2.Token), nil
}

// tokenResponse covers both the App Service and IMDS response shapes.
// expires_on is a unix timestamp encoded as a string.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresOn   string `json:"expires_on"`
	ExpiresIn   string `json:"expires_in"`
	Resource    string `json:"resource"`
}

func (p *Provider) fetch(ctx context.Context, resource string) (*oauth2.Token, error) {
	req, err := p.newRequest(ctx, resource)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read identity response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.Debug("Identity", "Token request failed: status=%d body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: identity endpoint returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse identity response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrUnavailable)
	}

	token := &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   "Bearer",
		Expiry:      parseExpiry(tr),
	}

	logging.Info("Identity", "Acquired managed identity token for resource=%s in %v (expires: %s)",
		resource, time.Since(start).Round(time.Millisecond), token.Expiry.Format(time.RFC3339))
	return token, nil
}

func (p *Provider) newRequest(ctx context.Context, resource string) (*http.Request, error) {
	if p.cfg.Endpoint != "" {
		u, err := url.Parse(p.cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid identity endpoint: %w", err)
		}
		q := u.Query()
		q.Set("resource", resource)
		q.Set("api-version", appServiceAPIVersion)
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-IDENTITY-HEADER", p.cfg.Header)
		return req, nil
	}

	u, err := url.Parse(p.cfg.IMDSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid IMDS endpoint: %w", err)
	}
	q := u.Query()
	q.Set("resource", resource)
	q.Set("api-version", imdsAPIVersion)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Metadata", "true")
	return req, nil
}

func parseExpiry(tr tokenResponse) time.Time {
	if tr.ExpiresOn != "" {
		if secs, err := strconv.ParseInt(tr.ExpiresOn, 10, 64); err == nil {
			return time.Unix(secs, 0)
		}
	}
	if tr.ExpiresIn != "" {
		if secs, err := strconv.ParseInt(tr.ExpiresIn, 10, 64); err == nil {
			return time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	// Unknown lifetime: treat as short-lived so it is refetched soon.
	return time.Now().Add(5 * time.Minute)
}

// ScopeToResource converts a v2 scope ("https://vault.azure.net/.default")
// into the v1 resource form the identity endpoints expect.
func ScopeToResource(scope string) string {
	return strings.TrimSuffix(scope, "/.default")
}
