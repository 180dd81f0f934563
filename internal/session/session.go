// Package session owns the console's only local state: the mapping from the
// browser's session cookie to the API bearer token. At most one session is
// active per browser; its presence gates every protected page.
package session

import (
	"errors"
	"time"
)

// Session is one authenticated browser context. The API token never reaches
// the browser; only the opaque session ID rides the cookie.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ErrExpired is reported by the manager when a 401 survives the single
// refresh-and-retry. The handler's only valid response is a login redirect.
var ErrExpired = errors.New("session: expired")

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	Create(s *Session) error
	// Get returns the session or (nil, nil) when absent.
	Get(id string) (*Session, error)
	Update(s *Session) error
	Delete(id string) error
	// DeleteExpired removes sessions past expiry and returns how many.
	DeleteExpired(now time.Time) (int, error)
	// Count returns the number of stored sessions, expired or not.
	Count() (int, error)
	Close() error
}
