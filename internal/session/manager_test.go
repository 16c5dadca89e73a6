package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/config"
)

func newTestManager(store Store) *Manager {
	return NewManager(ManagerConfig{
		Store:      store,
		Secret:     "test-secret",
		CookieName: "sess",
		TTL:        time.Hour,
	})
}

func cookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "sess" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestManager_NewSessionWithoutCookie(t *testing.T) {
	m := newTestManager(NewMemoryStore(10, time.Hour))

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, s)
	assert.True(t, s.IsNew())
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated())
}

func TestManager_SaveAndLoad(t *testing.T) {
	m := newTestManager(NewMemoryStore(10, time.Hour))

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.User = Claims{"name": "Alice"}
	s.Append(RoleUser, "hi")

	rr := httptest.NewRecorder()
	require.NoError(t, m.Save(t.Context(), rr, s))

	cookie := cookieFrom(t, rr)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotContains(t, cookie.Value, "Alice")

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(cookie)
	loaded := m.Load(req)

	assert.Equal(t, s.ID, loaded.ID)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, []ChatMessage{{Role: RoleUser, Content: "hi"}}, loaded.History())
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	m := newTestManager(store)
	other := NewManager(ManagerConfig{Store: store, Secret: "other-secret", CookieName: "sess", TTL: time.Hour})

	s := New("victim")
	s.User = Claims{"name": "Alice"}
	rr := httptest.NewRecorder()
	require.NoError(t, other.Save(t.Context(), rr, s))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(cookieFrom(t, rr))
	loaded := m.Load(req)

	assert.NotEqual(t, "victim", loaded.ID)
	assert.False(t, loaded.Authenticated())
}

func TestManager_GarbageCookie(t *testing.T) {
	m := newTestManager(NewMemoryStore(10, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: "not-a-jwt"})

	s := m.Load(req)
	assert.True(t, s.IsNew())
}

func TestManager_Renew(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	m := newTestManager(store)

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Append(RoleUser, "hi")
	rr := httptest.NewRecorder()
	require.NoError(t, m.Save(t.Context(), rr, s))
	oldCookie := cookieFrom(t, rr)
	oldID := s.ID

	rr = httptest.NewRecorder()
	require.NoError(t, m.Renew(t.Context(), rr, s))
	assert.NotEqual(t, oldID, s.ID)

	_, err := store.Get(t.Context(), oldID)
	assert.ErrorIs(t, err, ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(oldCookie)
	assert.True(t, m.Load(req).IsNew(), "old cookie must not resolve")

	req = httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(cookieFrom(t, rr))
	loaded := m.Load(req)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, []ChatMessage{{Role: RoleUser, Content: "hi"}}, loaded.History())
}

func TestManager_Destroy(t *testing.T) {
	store := NewMemoryStore(10, time.Hour)
	m := newTestManager(store)

	s := New("abc")
	s.User = Claims{"name": "Alice"}
	s.Append(RoleUser, "hi")
	require.NoError(t, m.Save(t.Context(), httptest.NewRecorder(), s))

	rr := httptest.NewRecorder()
	require.NoError(t, m.Destroy(t.Context(), rr, s))

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.History())
	assert.Equal(t, -1, cookieFrom(t, rr).MaxAge)

	_, err := store.Get(t.Context(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewStore(t *testing.T) {
	cfg := config.GetDefaultConfig().Session

	store, err := NewStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg.Storage.Type = "disk"
	_, err = NewStore(cfg)
	assert.Error(t, err)
}
