package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_AppendPreservesOrder(t *testing.T) {
	s := New("id")
	s.Append(RoleUser, "hi")
	s.Append(RoleAssistant, "hello")

	assert.Equal(t, []ChatMessage{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}, s.History())
}

func TestSession_AppendKeepsDuplicates(t *testing.T) {
	s := New("id")
	s.Append(RoleUser, "again")
	s.Append(RoleUser, "again")
	assert.Len(t, s.History(), 2)
}

func TestSession_HistoryIsACopy(t *testing.T) {
	s := New("id")
	s.Append(RoleUser, "hi")

	h := s.History()
	h[0].Content = "mutated"

	assert.Equal(t, "hi", s.History()[0].Content)
}

func TestSession_ClearHistory(t *testing.T) {
	for _, n := range []int{0, 1, 50} {
		s := New("id")
		for i := 0; i < n; i++ {
			s.Append(RoleUser, "msg")
		}
		s.ClearHistory()
		assert.Empty(t, s.History())
	}
}

func TestSession_Reset(t *testing.T) {
	s := New("id")
	s.User = Claims{"name": "Alice"}
	s.TokenCache = "{}"
	s.Pending = &PendingLogin{State: "x"}
	s.Append(RoleUser, "hi")

	s.Reset()

	assert.Equal(t, "id", s.ID)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.TokenCache)
	assert.Nil(t, s.Pending)
	assert.Empty(t, s.History())
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := New("id")
	s.User = Claims{"name": "Alice"}
	s.Pending = &PendingLogin{State: "x"}
	s.Append(RoleUser, "hi")

	c := s.clone()
	c.User["name"] = "Mallory"
	c.Pending.State = "y"
	c.Append(RoleAssistant, "extra")

	assert.Equal(t, "Alice", s.User["name"])
	assert.Equal(t, "x", s.Pending.State)
	assert.Len(t, s.History(), 1)
}

func TestClaims(t *testing.T) {
	tests := []struct {
		name         string
		claims       Claims
		wantDisplay  string
		wantUsername string
	}{
		{"full", Claims{"name": "Alice Doe", "preferred_username": "alice@example.com"}, "Alice Doe", "alice@example.com"},
		{"username only", Claims{"preferred_username": "bob@example.com"}, "bob@example.com", "bob@example.com"},
		{"empty", Claims{}, "User", "unknown"},
		{"non-string", Claims{"name": 42}, "42", "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantDisplay, tc.claims.DisplayName())
			assert.Equal(t, tc.wantUsername, tc.claims.Username())
		})
	}
}
