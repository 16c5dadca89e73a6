// Package oauth implements the browser sign-in flow against Microsoft Entra ID
// and the per-session token cache.
//
// # Flow
//
// The authorization-code flow with PKCE runs in three steps:
//
//  1. /login stores a fresh PendingLogin (state, nonce, code verifier) in the
//     session and redirects to the tenant's authorize endpoint
//  2. the provider redirects back to the callback path with code and state
//  3. the callback checks the state, redeems the code, validates the ID token
//     audience and nonce, and stores the claims and token cache in the session
//
// The pending login is single-use: every callback outcome clears it.
//
// # Token cache
//
// TokenCache is serialized into the session as an opaque string. Manager.Token
// deserializes it, attempts silent acquisition (reuse while the access token is
// valid for at least 30 more seconds, refresh otherwise) and writes the cache
// back into the session whatever the outcome.
//
// # Security
//
// State values are compared in constant time. Tokens never reach the browser;
// only the session cookie does.
package oauth
