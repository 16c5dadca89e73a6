package config

import "time"

const (
	// DefaultRedirectPath must match the redirect URI registered for the application.
	DefaultRedirectPath = "/getAToken"

	// DefaultAuthorityHost is the Entra ID login host.
	DefaultAuthorityHost = "https://login.microsoftonline.com"

	// DefaultSessionSecret is only acceptable for local development.
	DefaultSessionSecret = "dev-secret-key"

	// DefaultHostedDeployment is used when AZURE_OPENAI_DEPLOYMENT is unset on the platform.
	DefaultHostedDeployment = "gpt-4o"

	// DefaultAPIVersion accepts content part arrays for every message role.
	DefaultAPIVersion = "2024-10-21"

	// DefaultSystemPrompt is prepended to every model call and never stored in the transcript.
	DefaultSystemPrompt = "You are a helpful AI assistant. Be concise and helpful."

	StorageTypeMemory = "memory"
	StorageTypeValkey = "valkey"
)

// GetDefaultConfig returns the configuration used when no config file is present.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:              "localhost",
			Port:              5000,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 1,
				Burst:             10,
			},
		},
		Auth: AuthConfig{
			AuthorityHost:   DefaultAuthorityHost,
			Scopes:          []string{"User.Read"},
			RedirectPath:    DefaultRedirectPath,
			PendingLoginTTL: 10 * time.Minute,
		},
		Session: SessionConfig{
			CookieName: "chatgate_session",
			TTL:        24 * time.Hour,
			Storage: StorageConfig{
				Type:       StorageTypeMemory,
				MaxEntries: 10000,
				Valkey: ValkeyConfig{
					KeyPrefix: "chatgate:session:",
				},
			},
		},
		Completion: CompletionConfig{
			APIVersion:   DefaultAPIVersion,
			MaxTokens:    1000,
			Temperature:  0.7,
			SystemPrompt: DefaultSystemPrompt,
			Timeout:      60 * time.Second,
			TokenScope:   "https://cognitiveservices.azure.com/.default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
