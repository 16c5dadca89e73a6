package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"chatgate/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Environment variable names. These are an external contract shared with the
// deployment templates and must not be renamed.
const (
	EnvClientID         = "CLIENT_ID"
	EnvClientSecret     = "CLIENT_SECRET"
	EnvTenantID         = "TENANT_ID"
	EnvSessionSecret    = "FLASK_SECRET_KEY"
	EnvOpenAIEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvOpenAIDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvOpenAIKey        = "AZURE_OPENAI_KEY"
	EnvKeyVaultName     = "KEY_VAULT_NAME"
	EnvWebsiteHostname  = "WEBSITE_HOSTNAME"
	EnvPort             = "PORT"
)

// LookupFunc matches os.LookupEnv and lets tests supply a fake environment.
type LookupFunc func(key string) (string, bool)

// LoadConfig loads the config file at path over the defaults. An empty path or
// a missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := GetDefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config file found at %s, using defaults", path)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config from %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return cfg, nil
}

// DetectPlatform reads the runtime-environment flags.
func DetectPlatform(lookup LookupFunc) Platform {
	hostname, hosted := lookup(EnvWebsiteHostname)
	vault, _ := lookup(EnvKeyVaultName)
	return Platform{
		Hosted:       hosted,
		Hostname:     hostname,
		KeyVaultName: strings.TrimSpace(vault),
	}
}

// ApplyEnv fills the platform flags and the model settings from the environment.
// Identity credentials are resolved separately because they may come from the
// secret store.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	cfg.Platform = DetectPlatform(lookup)

	if v, ok := lookup(EnvOpenAIEndpoint); ok {
		cfg.Credentials.OpenAIEndpoint = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvOpenAIDeployment); ok && v != "" {
		cfg.Credentials.OpenAIDeployment = v
	} else if cfg.Platform.Hosted {
		cfg.Credentials.OpenAIDeployment = DefaultHostedDeployment
	}
	if v, ok := lookup(EnvOpenAIKey); ok {
		cfg.Credentials.OpenAIKey = NewRedacted(v)
	}

	// The platform injects PORT; honor it over the file value.
	if v, ok := lookup(EnvPort); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			logging.Warn("ConfigLoader", "Ignoring invalid %s=%q", EnvPort, v)
		}
	}
	if cfg.Platform.Hosted && cfg.Server.Host == "localhost" {
		cfg.Server.Host = "0.0.0.0"
	}
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
