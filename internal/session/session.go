// Package session owns the portal's authentication state: the upstream bearer
// token and user type held against a server-side session row, referenced from
// the browser by an HMAC-signed cookie. Login creates a session; logout, an
// upstream 401, or five minutes of inactivity destroys it.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
	// ErrInactive is returned when the inactivity window has elapsed since
	// the session was last seen; the session is destroyed as a side effect.
	ErrInactive = errors.New("session inactive")
)

// Session is one authenticated portal session.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserType  string    `json:"user_type"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the persistence adapter for sessions. The portal runs on the
// Postgres implementation; tests use the in-memory one.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteExpired removes sessions past their expiry or idle beyond the
	// inactivity window, returning how many were removed.
	DeleteExpired(ctx context.Context, now time.Time, inactivity time.Duration) (int64, error)
}
