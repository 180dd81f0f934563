package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workflowai/console/internal/api"
)

// CookieName is the single credential transport: an HttpOnly cookie holding
// the opaque session ID.
const CookieName = "session"

// TokenRefresher renews an API token. Satisfied by *api.Client.
type TokenRefresher interface {
	Refresh(ctx context.Context, token string) (*api.Token, error)
}

// Manager ties the store to the browser cookie and applies the uniform 401
// policy: refresh once, retry once, then give up.
type Manager struct {
	store     Store
	refresher TokenRefresher
	ttl       time.Duration
	secure    bool
	logger    *slog.Logger

	// mu guards session token reads and writes; concurrent WithAuth calls
	// on the same session share a single refresh.
	mu sync.Mutex
}

// NewManager creates a session manager. secure marks issued cookies
// Secure (set when the console serves TLS).
func NewManager(store Store, refresher TokenRefresher, ttl time.Duration, secure bool, logger *slog.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		ttl:       ttl,
		secure:    secure,
		logger:    logger,
	}
}

// Issue creates a session for the given API token and sets the cookie.
func (m *Manager) Issue(w http.ResponseWriter, token, email string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:        uuid.New().String(),
		Token:     token,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return s, nil
}

// Resolve returns the live session for the request, or nil when there is
// none. Expired sessions are deleted on read.
func (m *Manager) Resolve(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}

	s, err := m.store.Get(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if s.Expired(time.Now()) {
		if err := m.store.Delete(s.ID); err != nil {
			m.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil, nil
	}
	return s, nil
}

// Destroy deletes the request's session and clears the cookie. Safe to call
// without a live session.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if err := m.store.Delete(cookie.Value); err != nil {
			m.logger.Warn("failed to delete session", "error", err)
		}
	}
	ClearCookie(w)
}

// ClearCookie expires the session cookie in the browser.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}

// WithAuth runs fn with the session's token, applying the 401 policy. On
// api.ErrUnauthorized the token is refreshed and fn retried exactly once; a
// refresh failure or second 401 destroys the session and reports ErrExpired.
// Any other error from fn passes through untouched. Safe for concurrent use
// on the same session: when parallel callers hit a 401 together only one of
// them refreshes, and the rest retry with the token it obtained.
func (m *Manager) WithAuth(ctx context.Context, s *Session, fn func(token string) error) error {
	token := m.token(s)

	err := fn(token)
	if !errors.Is(err, api.ErrUnauthorized) {
		return err
	}

	token, err = m.refreshToken(ctx, s, token)
	if err != nil {
		return err
	}

	err = fn(token)
	if errors.Is(err, api.ErrUnauthorized) {
		m.expire(s)
		return ErrExpired
	}
	return err
}

func (m *Manager) token(s *Session) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.Token
}

// refreshToken trades the used token for a fresh one. When another caller
// already rotated the session's token, its result is reused instead of
// issuing a second, stale refresh.
func (m *Manager) refreshToken(ctx context.Context, s *Session, used string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Token != used {
		return s.Token, nil
	}

	tok, err := m.refresher.Refresh(ctx, used)
	if err != nil {
		m.logger.Info("token refresh failed, ending session", "email", s.Email, "error", err)
		m.expire(s)
		return "", ErrExpired
	}

	s.Token = tok.AccessToken
	if err := m.store.Update(s); err != nil {
		m.logger.Warn("failed to persist refreshed token", "error", err)
	}
	return s.Token, nil
}

func (m *Manager) expire(s *Session) {
	if err := m.store.Delete(s.ID); err != nil {
		m.logger.Warn("failed to delete session", "error", err)
	}
}

// DeleteExpired purges expired sessions from the store.
func (m *Manager) DeleteExpired() (int, error) {
	return m.store.DeleteExpired(time.Now())
}
