package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists sessions server-side. Writes are last-write-wins: two
// requests of the same session racing on Save keep whichever finishes last.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}
