package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/option"
	"golang.org/x/oauth2"

	"chatgate/internal/config"
)

// CredentialStrategy supplies the authentication for one model request.
type CredentialStrategy interface {
	Name() string
	RequestOptions(ctx context.Context) ([]option.RequestOption, error)
}

// ManagedIdentityStrategy authenticates with a bearer token from the platform identity.
type ManagedIdentityStrategy struct {
	tokens oauth2.TokenSource
}

// NewManagedIdentityStrategy wraps a token source issuing tokens for the model API scope.
func NewManagedIdentityStrategy(tokens oauth2.TokenSource) *ManagedIdentityStrategy {
	return &ManagedIdentityStrategy{tokens: tokens}
}

func (s *ManagedIdentityStrategy) Name() string { return "managed identity" }

func (s *ManagedIdentityStrategy) RequestOptions(_ context.Context) ([]option.RequestOption, error) {
	tok, err := s.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get managed identity token: %w", err)
	}
	return []option.RequestOption{
		option.WithHeader("Authorization", "Bearer "+tok.AccessToken),
		option.WithHeaderDel("api-key"),
	}, nil
}

// APIKeyStrategy authenticates with a static key in the api-key header.
type APIKeyStrategy struct {
	key config.Redacted
}

// NewAPIKeyStrategy creates a strategy for the given key.
func NewAPIKeyStrategy(key config.Redacted) *APIKeyStrategy {
	return &APIKeyStrategy{key: key}
}

func (s *APIKeyStrategy) Name() string { return "api key" }

func (s *APIKeyStrategy) RequestOptions(_ context.Context) ([]option.RequestOption, error) {
	if s.key.IsEmpty() {
		return nil, errors.New("no api key configured")
	}
	return []option.RequestOption{
		option.WithHeaderDel("Authorization"),
		option.WithHeader("api-key", s.key.Value()),
	}, nil
}
