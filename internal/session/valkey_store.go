package session

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"chatgate/internal/config"
)

// ValkeyStore keeps sessions in valkey so several replicas can share them.
type ValkeyStore struct {
	client    valkey.Client
	keyPrefix string
	ttl       time.Duration
}

// NewValkeyStore connects to valkey using cfg.
func NewValkeyStore(cfg config.ValkeyConfig, ttl time.Duration) (*ValkeyStore, error) {
	opt := valkey.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLSEnabled {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.Address, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "chatgate:session:"
	}
	return &ValkeyStore{client: client, keyPrefix: prefix, ttl: ttl}, nil
}

func (v *ValkeyStore) key(id string) string {
	return v.keyPrefix + id
}

// Get loads and decodes a session.
func (v *ValkeyStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Save encodes the session and stores it with the session TTL.
func (v *ValkeyStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	cmd := v.client.B().Set().Key(v.key(s.ID)).Value(string(data)).ExSeconds(int64(v.ttl.Seconds())).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (v *ValkeyStore) Delete(ctx context.Context, id string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.key(id)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (v *ValkeyStore) Close() error {
	v.client.Close()
	return nil
}
