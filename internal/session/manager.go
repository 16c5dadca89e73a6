package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatgate/internal/config"
	"chatgate/pkg/logging"
)

// cookieIssuer is the issuer claim of session cookies.
const cookieIssuer = "chatgate"

// Manager binds sessions to browsers through a signed cookie that carries
// only the session ID. Session contents stay in the Store.
type Manager struct {
	store      Store
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store      Store
	Secret     string
	CookieName string
	TTL        time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		store:      cfg.Store,
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
}

// NewStore builds the configured store backend.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Storage.Type {
	case "", config.StorageTypeMemory:
		return NewMemoryStore(cfg.Storage.MaxEntries, cfg.TTL), nil
	case config.StorageTypeValkey:
		return NewValkeyStore(cfg.Storage.Valkey, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported session storage type: %s", cfg.Storage.Type)
	}
}

// Load returns the request's session, or a fresh anonymous one when the
// cookie is missing, tampered with, expired, or points to an unknown session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return New(uuid.NewString())
	}

	id, err := m.parseCookie(cookie.Value)
	if err != nil {
		logging.Debug("Session", "Discarding session cookie: %v", err)
		return New(uuid.NewString())
	}

	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Error("Session", err, "Failed to load session=%s", logging.TruncateSessionID(id))
		}
		return New(uuid.NewString())
	}
	return s
}

// Save persists the session and refreshes the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	s.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}

	value, err := m.signCookie(s.ID)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		// Lax keeps the cookie on the top-level redirect back from the identity provider.
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Renew moves the session to a fresh ID, saves it and drops the old store entry.
// Call it when the session's privilege changes, such as on sign-in.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, s *Session) error {
	oldID := s.ID
	s.ID = uuid.NewString()
	if err := m.Save(ctx, w, s); err != nil {
		s.ID = oldID
		return err
	}
	if err := m.store.Delete(ctx, oldID); err != nil && !errors.Is(err, ErrNotFound) {
		logging.Warn("Session", "Failed to delete replaced session=%s: %v", logging.TruncateSessionID(oldID), err)
	}
	return nil
}

// Destroy removes the session from the store and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	s.Reset()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return m.store.Delete(ctx, s.ID)
}

func (m *Manager) signCookie(id string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Issuer:    cookieIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parseCookie(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(cookieIssuer))
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session cookie has no id")
	}
	return claims.ID, nil
}
