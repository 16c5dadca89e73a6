package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := GetDefaultConfig()
	cfg.Credentials.ClientID = "client"
	cfg.Credentials.ClientSecret = NewRedacted("secret")
	cfg.Credentials.TenantID = "tenant"
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing client id", func(c *Config) { c.Credentials.ClientID = "" }, "CLIENT_ID"},
		{"missing client secret", func(c *Config) { c.Credentials.ClientSecret = Redacted{} }, "CLIENT_SECRET"},
		{"missing tenant", func(c *Config) { c.Credentials.TenantID = " " }, "TENANT_ID"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"relative public url", func(c *Config) { c.Server.PublicURL = "/chat" }, "server.publicUrl"},
		{"bad redirect path", func(c *Config) { c.Auth.RedirectPath = "getAToken" }, "auth.redirectPath"},
		{"redirect path on login route", func(c *Config) { c.Auth.RedirectPath = "/login" }, "auth.redirectPath"},
		{"redirect path on chat route", func(c *Config) { c.Auth.RedirectPath = "/chat" }, "auth.redirectPath"},
		{"redirect path is root", func(c *Config) { c.Auth.RedirectPath = "/" }, "auth.redirectPath"},
		{"redirect path with wildcard", func(c *Config) { c.Auth.RedirectPath = "/cb/{id}" }, "auth.redirectPath"},
		{"redirect path with query", func(c *Config) { c.Auth.RedirectPath = "/cb?x=1" }, "auth.redirectPath"},
		{"redirect path with space", func(c *Config) { c.Auth.RedirectPath = "/call back" }, "auth.redirectPath"},
		{"redirect path not clean", func(c *Config) { c.Auth.RedirectPath = "/a/../login" }, "auth.redirectPath"},
		{"http authority", func(c *Config) { c.Auth.AuthorityHost = "http://login.example.com" }, "auth.authorityHost"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"unknown storage", func(c *Config) { c.Session.Storage.Type = "disk" }, "session.storage.type"},
		{"valkey without address", func(c *Config) { c.Session.Storage.Type = StorageTypeValkey }, "session.storage.valkey.address"},
		{"zero max tokens", func(c *Config) { c.Completion.MaxTokens = 0 }, "completion.maxTokens"},
		{"temperature too high", func(c *Config) { c.Completion.Temperature = 3 }, "completion.temperature"},
		{"rate limit without burst", func(c *Config) { c.Server.RateLimit.Burst = 0 }, "server.rateLimit"},
		{"bad model endpoint", func(c *Config) { c.Credentials.OpenAIEndpoint = "not a url" }, "AZURE_OPENAI_ENDPOINT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "is required")
	assert.Equal(t, "field 'a': is required", errs.Error())

	errs.Add("b", "is bad")
	assert.Equal(t, "validation failed: field 'a': is required; field 'b': is bad", errs.Error())
}
