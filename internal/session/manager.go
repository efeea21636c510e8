package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/puresec-ng/banyan-portal/internal/config"
)

// CookieName is the portal session cookie.
const CookieName = "banyan_session"

// Manager ties the store, the cookie codec, and the lifecycle rules together.
type Manager struct {
	store      Store
	codec      *Codec
	domain     string
	secure     bool
	ttl        time.Duration
	inactivity time.Duration
	now        func() time.Time
}

// NewManager builds a Manager from config.
func NewManager(cfg *config.Config, store Store) *Manager {
	return &Manager{
		store:      store,
		codec:      NewCodec(cfg.CookieSecret),
		domain:     cfg.CookieDomain,
		secure:     cfg.Production(),
		ttl:        cfg.SessionTTL,
		inactivity: cfg.InactivityWindow,
		now:        time.Now,
	}
}

// Create persists a new session for the given upstream credentials and
// returns it with its signed cookie.
func (m *Manager) Create(ctx context.Context, token, userType, email string) (*Session, *http.Cookie, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserType:  userType,
		Email:     email,
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}
	return s, m.cookie(m.codec.Encode(s.ID), s.ExpiresAt), nil
}

// Resolve validates the cookie value, loads the session, and enforces expiry
// and the inactivity window. On success the session's LastSeen is advanced.
func (m *Manager) Resolve(ctx context.Context, cookieValue string) (*Session, error) {
	id, ok := m.codec.Decode(cookieValue)
	if !ok {
		return nil, ErrNotFound
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	if now.After(s.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrExpired
	}
	if now.Sub(s.LastSeen) > m.inactivity {
		_ = m.store.Delete(ctx, id)
		return nil, ErrInactive
	}
	if err := m.store.Touch(ctx, id, now); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	s.LastSeen = now
	return s, nil
}

// Destroy removes the session and returns a cookie that clears the browser's.
func (m *Manager) Destroy(ctx context.Context, id string) (*http.Cookie, error) {
	if err := m.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	return m.ClearCookie(), nil
}

// DestroyByToken removes whichever session holds the given upstream token.
// Used as the 401 hook: the upstream said the token is dead.
func (m *Manager) DestroyByToken(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = m.store.DeleteByToken(ctx, token)
}

// ClearCookie returns an immediately-expiring session cookie.
func (m *Manager) ClearCookie() *http.Cookie {
	c := m.cookie("", time.Unix(0, 0))
	c.MaxAge = -1
	return c
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Domain:   m.domain,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
