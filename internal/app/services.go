package app

import (
	"context"
	"fmt"

	"chatgate/internal/completion"
	"chatgate/internal/config"
	"chatgate/internal/identity"
	"chatgate/internal/oauth"
	"chatgate/internal/server"
	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// Services holds the initialized components of the application.
type Services struct {
	Store    session.Store
	Sessions *session.Manager
	Tokens   *oauth.Manager
	Gateway  *completion.Gateway
	Server   *server.Server
}

// InitializeServices wires the components from the resolved configuration.
func InitializeServices(ctx context.Context, cfg *config.Config, provider *identity.Provider) (*Services, error) {
	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	logging.Info("Bootstrap", "Using %s session store", cfg.Session.Storage.Type)

	sessions := session.NewManager(session.ManagerConfig{
		Store:      store,
		Secret:     cfg.Credentials.SessionSecret.Value(),
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Platform.Hosted,
	})

	tokens := oauth.NewManager(oauth.NewClient(oauth.ClientConfig{
		ClientID:     cfg.Credentials.ClientID,
		ClientSecret: cfg.Credentials.ClientSecret.Value(),
		Authority:    cfg.Authority(),
		Scopes:       cfg.Auth.Scopes,
	}))

	gateway := completion.New(completion.Config{
		Endpoint:     cfg.Credentials.OpenAIEndpoint,
		Deployment:   cfg.Credentials.OpenAIDeployment,
		APIVersion:   cfg.Completion.APIVersion,
		MaxTokens:    cfg.Completion.MaxTokens,
		Temperature:  cfg.Completion.Temperature,
		SystemPrompt: cfg.Completion.SystemPrompt,
		Timeout:      cfg.Completion.Timeout,
		Strategies:   credentialStrategies(ctx, cfg, provider),
	})

	srv, err := server.New(server.Options{
		Config:   cfg,
		Sessions: sessions,
		Tokens:   tokens,
		Gateway:  gateway,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Services{
		Store:    store,
		Sessions: sessions,
		Tokens:   tokens,
		Gateway:  gateway,
		Server:   srv,
	}, nil
}

// credentialStrategies orders the model API credentials: managed identity
// first when hosted, then the static key.
func credentialStrategies(ctx context.Context, cfg *config.Config, provider *identity.Provider) []completion.CredentialStrategy {
	var strategies []completion.CredentialStrategy
	if cfg.Platform.Hosted && provider != nil {
		strategies = append(strategies,
			completion.NewManagedIdentityStrategy(provider.TokenSource(ctx, cfg.Completion.TokenScope)))
	}
	return append(strategies, completion.NewAPIKeyStrategy(cfg.Credentials.OpenAIKey))
}

// Close releases the session store.
func (s *Services) Close() error {
	return s.Store.Close()
}
