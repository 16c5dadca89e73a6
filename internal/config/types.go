package config

import "time"

// Config is the top-level configuration for chatgate. It is built once at
// startup (defaults, then config file, then environment) and passed to the
// components that need it.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Session    SessionConfig    `yaml:"session"`
	Completion CompletionConfig `yaml:"completion"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Platform describes where the process runs. Populated from the environment only.
	Platform Platform `yaml:"-"`

	// Credentials are resolved at startup from the environment or the secret store.
	Credentials Credentials `yaml:"-"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// PublicURL overrides the externally visible base URL used for the OAuth
	// redirect URI and the post-logout return URL. When empty it is derived
	// from the incoming request.
	PublicURL string `yaml:"publicUrl,omitempty"`

	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout,omitempty"`
	WriteTimeout      time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout       time.Duration `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout,omitempty"`

	RateLimit RateLimitConfig `yaml:"rateLimit,omitempty"`
}

// RateLimitConfig is the per-IP limit applied to the login and callback routes.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// AuthConfig describes the identity provider.
type AuthConfig struct {
	AuthorityHost string   `yaml:"authorityHost,omitempty"`
	Scopes        []string `yaml:"scopes,omitempty"`
	RedirectPath  string   `yaml:"redirectPath,omitempty"`
	// PendingLoginTTL bounds how long a login attempt may wait for its callback.
	PendingLoginTTL time.Duration `yaml:"pendingLoginTtl,omitempty"`
}

// SessionConfig controls the session cookie and the server-side session store.
type SessionConfig struct {
	CookieName string        `yaml:"cookieName,omitempty"`
	TTL        time.Duration `yaml:"ttl,omitempty"`
	Storage    StorageConfig `yaml:"storage,omitempty"`
}

// StorageConfig selects the session store backend.
type StorageConfig struct {
	// Type is "memory" (default) or "valkey".
	Type       string       `yaml:"type,omitempty"`
	MaxEntries int          `yaml:"maxEntries,omitempty"`
	Valkey     ValkeyConfig `yaml:"valkey,omitempty"`
}

// ValkeyConfig configures the valkey session store.
type ValkeyConfig struct {
	Address    string `yaml:"address,omitempty"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db,omitempty"`
	KeyPrefix  string `yaml:"keyPrefix,omitempty"`
	TLSEnabled bool   `yaml:"tlsEnabled,omitempty"`
}

// CompletionConfig holds the decoding budget and request settings for the model API.
type CompletionConfig struct {
	APIVersion   string        `yaml:"apiVersion,omitempty"`
	MaxTokens    int64         `yaml:"maxTokens,omitempty"`
	Temperature  float64       `yaml:"temperature,omitempty"`
	SystemPrompt string        `yaml:"systemPrompt,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	// TokenScope is requested from the managed identity when running hosted.
	TokenScope string `yaml:"tokenScope,omitempty"`
}

// LoggingConfig controls log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Platform captures the runtime-environment flags read from the process environment.
type Platform struct {
	// Hosted is true when WEBSITE_HOSTNAME is set, i.e. running on the managed platform.
	Hosted       bool
	Hostname     string
	KeyVaultName string
}

// Credentials are the secret and endpoint values the components need.
type Credentials struct {
	ClientID      string
	ClientSecret  Redacted
	TenantID      string
	SessionSecret Redacted

	OpenAIEndpoint   string
	OpenAIDeployment string
	OpenAIKey        Redacted
}

// Authority returns the identity provider authority URL for the tenant.
func (c *Config) Authority() string {
	return trimSlash(c.Auth.AuthorityHost) + "/" + c.Credentials.TenantID
}

// ListenAddr returns host:port for the HTTP listener.
func (c *Config) ListenAddr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}
