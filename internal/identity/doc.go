// Package identity obtains bearer tokens from the hosting platform's managed
// identity service.
//
// On App Service the IDENTITY_ENDPOINT and IDENTITY_HEADER variables point to
// a local token endpoint; elsewhere the instance metadata service is used.
// Tokens are exposed as golang.org/x/oauth2 token sources so callers can use
// oauth2.NewClient or read the token directly.
package identity
