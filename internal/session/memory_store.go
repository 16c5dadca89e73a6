package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"chatgate/pkg/logging"
)

// MemoryStore keeps sessions in process memory, bounded in size and expiring
// after the configured TTL since the last save.
type MemoryStore struct {
	cache *expirable.LRU[string, *Session]
}

// NewMemoryStore creates a memory store holding at most maxEntries sessions.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	onEvict := func(id string, _ *Session) {
		logging.Debug("Session", "Evicted session=%s", logging.TruncateSessionID(id))
	}
	return &MemoryStore{
		cache: expirable.NewLRU[string, *Session](maxEntries, onEvict, ttl),
	}
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// Save stores a copy of s and restarts its TTL.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	c := s.clone()
	c.isNew = false
	m.cache.Add(s.ID, c)
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close is a no-op; it satisfies Store.
func (m *MemoryStore) Close() error {
	return nil
}
