package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"chatgate/pkg/logging"
)

const (
	keyVaultAPIVersion = "7.4"

	// KeyVaultScope is the token scope for the Key Vault data plane.
	KeyVaultScope = "https://vault.azure.net/.default"
)

// KeyVaultSource reads secrets from an Azure Key Vault using a bearer token
// from the managed identity.
type KeyVaultSource struct {
	vaultURL   string
	httpClient *http.Client
}

// KeyVaultURL returns the data-plane URL for a vault name.
func KeyVaultURL(vaultName string) string {
	return fmt.Sprintf("https://%s.vault.azure.net", vaultName)
}

// NewKeyVaultSource creates a source for vaultURL authenticated with ts.
func NewKeyVaultSource(ctx context.Context, vaultURL string, ts oauth2.TokenSource) *KeyVaultSource {
	base := &http.Client{Timeout: 15 * time.Second}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return &KeyVaultSource{
		vaultURL:   strings.TrimRight(vaultURL, "/"),
		httpClient: oauth2.NewClient(ctx, ts),
	}
}

func (s *KeyVaultSource) Name() string { return "key vault" }

type secretBundle struct {
	Value string `json:"value"`
}

// Secret fetches the latest version of the named secret. A 404 is not an error.
func (s *KeyVaultSource) Secret(ctx context.Context, name string) (string, error) {
	u := fmt.Sprintf("%s/secrets/%s?api-version=%s", s.vaultURL, url.PathEscape(name), keyVaultAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create secret request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("secret request for %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read secret response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		logging.Warn("Credentials", "Secret %s not found in key vault", name)
		return "", nil
	default:
		// Body may carry diagnostic details; keep it at debug level.
		logging.Debug("Credentials", "Secret request failed: status=%d body=%s", resp.StatusCode, string(body))
		return "", fmt.Errorf("key vault returned status %d for secret %s", resp.StatusCode, name)
	}

	var bundle secretBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return "", fmt.Errorf("failed to parse secret %s: %w", name, err)
	}
	return bundle.Value, nil
}
