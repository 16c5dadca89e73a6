package session

import "fmt"

// Claims are the identity claims from the ID token.
type Claims map[string]any

// String returns the claim as a string, or "" when absent or not a string.
func (c Claims) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DisplayName is the name shown in the UI.
func (c Claims) DisplayName() string {
	if name := c.String("name"); name != "" {
		return name
	}
	if name := c.String("preferred_username"); name != "" {
		return name
	}
	return "User"
}

// Username is the sign-in name used in audit logs.
func (c Claims) Username() string {
	if name := c.String("preferred_username"); name != "" {
		return name
	}
	return "unknown"
}
