package credentials

import (
	"context"

	"chatgate/internal/config"
	"chatgate/pkg/logging"
)

// Resolver fills the identity credentials of a Config from a Source.
type Resolver struct {
	source Source
}

// NewResolver creates a resolver reading from source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// SelectSource picks Key Vault when running hosted with a vault configured and
// the environment otherwise.
func SelectSource(platform config.Platform, vault func(vaultName string) Source, env Source) Source {
	if platform.Hosted && platform.KeyVaultName != "" && vault != nil {
		return vault(platform.KeyVaultName)
	}
	return env
}

// Resolve reads CLIENT-ID, CLIENT-SECRET, TENANT-ID and FLASK-SECRET-KEY into cfg.
// Lookup failures are logged and leave the value empty; Config.Validate
// reports what is missing.
func (r *Resolver) Resolve(ctx context.Context, cfg *config.Config) {
	logging.Info("Credentials", "Resolving credentials from %s", r.source.Name())

	cfg.Credentials.ClientID = r.get(ctx, SecretClientID)
	cfg.Credentials.ClientSecret = config.NewRedacted(r.get(ctx, SecretClientSecret))
	cfg.Credentials.TenantID = r.get(ctx, SecretTenantID)

	sessionSecret := r.get(ctx, SecretSessionSecret)
	if sessionSecret == "" {
		logging.Warn("Credentials", "%s not set, falling back to the development session key", config.EnvSessionSecret)
		sessionSecret = config.DefaultSessionSecret
	}
	cfg.Credentials.SessionSecret = config.NewRedacted(sessionSecret)
}

func (r *Resolver) get(ctx context.Context, name string) string {
	v, err := r.source.Secret(ctx, name)
	if err != nil {
		logging.Error("Credentials", err, "Failed to read secret %s from %s", name, r.source.Name())
		return ""
	}
	return v
}
