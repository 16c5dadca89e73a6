package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// fixedRoutes are served by the application and cannot be reused as the OAuth callback.
var fixedRoutes = map[string]bool{
	"/":       true,
	"/health": true,
	"/login":  true,
	"/logout": true,
	"/chat":   true,
	"/clear":  true,
}

// checkRedirectPath returns why p cannot be registered as the callback route, or "".
func checkRedirectPath(p string) string {
	switch {
	case !strings.HasPrefix(p, "/"):
		return "must start with '/'"
	case strings.ContainsAny(p, "{}?#% \t"):
		return "must be a plain path without pattern, query or escape characters"
	case path.Clean(p) != p:
		return "must be a clean path"
	case fixedRoutes[p]:
		return "collides with a built-in route"
	}
	return ""
}

// Validate checks a fully resolved configuration. It is the only place startup
// can fail on bad input; everything after it degrades to redirects or in-band messages.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Credentials.ClientID) == "" {
		errs.Add("CLIENT_ID", "is required")
	}
	if c.Credentials.ClientSecret.IsEmpty() {
		errs.Add("CLIENT_SECRET", "is required")
	}
	if strings.TrimSpace(c.Credentials.TenantID) == "" {
		errs.Add("TENANT_ID", "is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if c.Server.PublicURL != "" {
		if u, err := url.Parse(c.Server.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("server.publicUrl", "must be an absolute URL", c.Server.PublicURL)
		}
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst <= 0) {
		errs.Add("server.rateLimit", "requestsPerSecond and burst must be positive when enabled")
	}

	if msg := checkRedirectPath(c.Auth.RedirectPath); msg != "" {
		errs.Add("auth.redirectPath", msg, c.Auth.RedirectPath)
	}
	if u, err := url.Parse(c.Auth.AuthorityHost); err != nil || u.Scheme != "https" {
		errs.Add("auth.authorityHost", "must be an https URL", c.Auth.AuthorityHost)
	}

	if c.Session.TTL <= 0 {
		errs.Add("session.ttl", "must be positive", c.Session.TTL)
	}
	switch c.Session.Storage.Type {
	case StorageTypeMemory:
		if c.Session.Storage.MaxEntries <= 0 {
			errs.Add("session.storage.maxEntries", "must be positive", c.Session.Storage.MaxEntries)
		}
	case StorageTypeValkey:
		if c.Session.Storage.Valkey.Address == "" {
			errs.Add("session.storage.valkey.address", "is required when using valkey storage")
		}
	default:
		errs.Add("session.storage.type", fmt.Sprintf("unsupported storage type (supported: %s, %s)",
			StorageTypeMemory, StorageTypeValkey), c.Session.Storage.Type)
	}

	if c.Completion.MaxTokens <= 0 {
		errs.Add("completion.maxTokens", "must be positive", c.Completion.MaxTokens)
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		errs.Add("completion.temperature", "must be between 0 and 2", c.Completion.Temperature)
	}
	if c.Credentials.OpenAIEndpoint != "" {
		if u, err := url.Parse(c.Credentials.OpenAIEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("AZURE_OPENAI_ENDPOINT", "must be an absolute URL", c.Credentials.OpenAIEndpoint)
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
