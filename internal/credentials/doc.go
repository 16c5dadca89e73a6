// Package credentials resolves the identity provider credentials and the
// session signing key, either from the environment (local development) or
// from Key Vault through the managed identity (hosted).
package credentials
