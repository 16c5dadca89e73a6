package session

import (
	"time"
)

// Role tags a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PendingLogin is the anti-CSRF material of an in-flight login. It is
// overwritten by every login attempt and consumed by the callback.
type PendingLogin struct {
	State        string    `json:"state"`
	Nonce        string    `json:"nonce"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session holds all per-user state for one browser session.
type Session struct {
	ID string `json:"id"`

	// User holds the identity claims; nil while anonymous.
	User Claims `json:"user,omitempty"`

	// TokenCache is the serialized OAuth token cache.
	TokenCache string `json:"token_cache,omitempty"`

	Pending *PendingLogin `json:"pending,omitempty"`

	// ChatHistory is the transcript in turn order.
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	isNew bool
}

// New creates an empty anonymous session.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		isNew:     true,
	}
}

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.isNew }

// Authenticated reports whether identity claims are present.
func (s *Session) Authenticated() bool {
	return s.User != nil
}

// History returns a copy of the transcript.
func (s *Session) History() []ChatMessage {
	out := make([]ChatMessage, len(s.ChatHistory))
	copy(out, s.ChatHistory)
	return out
}

// Append adds a message at the end of the transcript.
func (s *Session) Append(role Role, content string) {
	s.ChatHistory = append(s.ChatHistory, ChatMessage{Role: role, Content: content})
}

// ClearHistory empties the transcript.
func (s *Session) ClearHistory() {
	s.ChatHistory = nil
}

// Reset drops every piece of per-user state, keeping only the ID.
func (s *Session) Reset() {
	s.User = nil
	s.TokenCache = ""
	s.Pending = nil
	s.ChatHistory = nil
}

// clone returns a deep copy so stored sessions are never shared between requests.
func (s *Session) clone() *Session {
	c := *s
	if s.User != nil {
		c.User = make(Claims, len(s.User))
		for k, v := range s.User {
			c.User[k] = v
		}
	}
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	c.ChatHistory = s.History()
	if len(c.ChatHistory) == 0 {
		c.ChatHistory = nil
	}
	return &c
}
