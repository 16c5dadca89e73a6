package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chatgate/internal/config"
	"chatgate/internal/credentials"
	"chatgate/internal/identity"
	"chatgate/pkg/logging"
)

// LoadSettings builds the runtime configuration: defaults, the config file,
// the environment (plus .env locally), and finally the identity credentials
// from the environment or Key Vault. The managed identity provider is returned
// when running hosted so other components can share its token cache.
func LoadSettings(ctx context.Context, appCfg *Config) (*config.Config, *identity.Provider, error) {
	lookup := appCfg.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	platform := config.DetectPlatform(lookup)
	if !platform.Hosted && appCfg.EnvFile != "" {
		var err error
		lookup, err = withDotEnv(lookup, appCfg.EnvFile)
		if err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.LoadConfig(appCfg.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	config.ApplyEnv(&cfg, lookup)

	if appCfg.Debug {
		cfg.Logging.Level = "debug"
	}
	if appCfg.LogFormat != "" {
		cfg.Logging.Format = appCfg.LogFormat
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, appCfg.LogOutput)

	var provider *identity.Provider
	if cfg.Platform.Hosted {
		provider = identity.NewProvider(identity.ConfigFromEnv(lookup))
		logging.Info("Bootstrap", "Running hosted on %s", cfg.Platform.Hostname)
	}

	vault := func(vaultName string) credentials.Source {
		return credentials.NewKeyVaultSource(ctx, credentials.KeyVaultURL(vaultName),
			provider.TokenSource(ctx, credentials.KeyVaultScope))
	}
	if provider == nil {
		vault = nil
	}

	source := credentials.SelectSource(cfg.Platform, vault, credentials.NewEnvSource(lookup))
	credentials.NewResolver(source).Resolve(ctx, &cfg)

	return &cfg, provider, nil
}

// withDotEnv layers the values of a dotenv file under lookup. Variables already
// set in the process environment win. A missing file is not an error.
func withDotEnv(lookup config.LookupFunc, path string) (config.LookupFunc, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	logging.Debug("Bootstrap", "Loaded %d variables from %s", len(values), path)

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}
