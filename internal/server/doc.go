// Package server exposes the HTTP surface: the landing page, the OAuth login,
// callback and logout routes, the chat page and a health endpoint.
//
// Every response carries the security headers set by securityHeaders. The
// login and callback routes are additionally limited per client IP.
package server
