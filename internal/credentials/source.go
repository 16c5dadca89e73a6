package credentials

import (
	"context"
	"os"
	"strings"
)

// Secret names as stored in Key Vault. EnvSource maps them to environment
// variables by upper-casing and replacing '-' with '_'.
const (
	SecretClientID      = "CLIENT-ID"
	SecretClientSecret  = "CLIENT-SECRET"
	SecretTenantID      = "TENANT-ID"
	SecretSessionSecret = "FLASK-SECRET-KEY"
)

// Source supplies secret values by name. A missing secret is reported as an
// empty string with a nil error.
type Source interface {
	Name() string
	Secret(ctx context.Context, name string) (string, error)
}

// EnvSource reads secrets from the process environment.
type EnvSource struct {
	lookup func(string) (string, bool)
}

// NewEnvSource creates an EnvSource. A nil lookup uses os.LookupEnv.
func NewEnvSource(lookup func(string) (string, bool)) *EnvSource {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvSource{lookup: lookup}
}

func (s *EnvSource) Name() string { return "environment" }

// Secret returns the value of the environment variable derived from name.
func (s *EnvSource) Secret(_ context.Context, name string) (string, error) {
	v, _ := s.lookup(EnvName(name))
	return v, nil
}

// EnvName converts a secret name ("CLIENT-ID") to its environment variable ("CLIENT_ID").
func EnvName(secretName string) string {
	return strings.ToUpper(strings.ReplaceAll(secretName, "-", "_"))
}
