package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/workflowai/console/internal/api"
)

type fakeRefresher struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context, token string) (*api.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &api.Token{AccessToken: f.token}, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestManager(t *testing.T, refresher TokenRefresher) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, refresher, time.Hour, false, logger), store
}

func issueTestSession(t *testing.T, m *Manager) (*Session, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	s, err := m.Issue(w, "tok-1", "user@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return s, w
}

func TestIssueSetsCookie(t *testing.T) {
	m, store := newTestManager(t, &fakeRefresher{})
	s, w := issueTestSession(t, m)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Issue() set %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("cookie name = %v, want %v", c.Name, CookieName)
	}
	if c.Value != s.ID {
		t.Errorf("cookie value = %v, want session ID", c.Value)
	}
	if !c.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	stored, err := store.Get(s.ID)
	if err != nil || stored == nil {
		t.Fatalf("stored session missing: %v", err)
	}
	if stored.Token != "tok-1" {
		t.Errorf("stored token = %v, want tok-1", stored.Token)
	}
}

func TestResolve(t *testing.T) {
	m, _ := newTestManager(t, &fakeRefresher{})
	s, _ := issueTestSession(t, m)

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})

	got, err := m.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got == nil || got.ID != s.ID {
		t.Fatalf("Resolve() = %v, want session %v", got, s.ID)
	}

	// No cookie at all.
	got, err = m.Resolve(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != nil {
		t.Error("Resolve() without cookie should return nil")
	}

	// Unknown session ID.
	r = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "bogus"})
	got, err = m.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != nil {
		t.Error("Resolve() with unknown ID should return nil")
	}
}

func TestResolveExpiredDeletes(t *testing.T) {
	m, store := newTestManager(t, &fakeRefresher{})
	s, _ := issueTestSession(t, m)

	s.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Update(s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})

	got, err := m.Resolve(r)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != nil {
		t.Error("Resolve() should not return an expired session")
	}

	stored, _ := store.Get(s.ID)
	if stored != nil {
		t.Error("expired session should be deleted on read")
	}
}

func TestWithAuthPassthrough(t *testing.T) {
	ref := &fakeRefresher{token: "tok-2"}
	m, _ := newTestManager(t, ref)
	s, _ := issueTestSession(t, m)

	calls := 0
	err := m.WithAuth(context.Background(), s, func(token string) error {
		calls++
		if token != "tok-1" {
			t.Errorf("fn token = %v, want tok-1", token)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithAuth() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if got := ref.callCount(); got != 0 {
		t.Errorf("Refresh called %d times, want 0", got)
	}
}

func TestWithAuthRefreshAndRetryOnce(t *testing.T) {
	ref := &fakeRefresher{token: "tok-2"}
	m, store := newTestManager(t, ref)
	s, _ := issueTestSession(t, m)

	var tokens []string
	err := m.WithAuth(context.Background(), s, func(token string) error {
		tokens = append(tokens, token)
		if token == "tok-1" {
			return api.ErrUnauthorized
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithAuth() error = %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "tok-1" || tokens[1] != "tok-2" {
		t.Errorf("fn saw tokens %v, want [tok-1 tok-2]", tokens)
	}
	if got := ref.callCount(); got != 1 {
		t.Errorf("Refresh called %d times, want 1", got)
	}

	stored, _ := store.Get(s.ID)
	if stored == nil || stored.Token != "tok-2" {
		t.Errorf("refreshed token not persisted: %+v", stored)
	}
}

func TestWithAuthConcurrentSharesOneRefresh(t *testing.T) {
	ref := &fakeRefresher{token: "tok-2"}
	m, store := newTestManager(t, ref)
	s, _ := issueTestSession(t, m)

	// The dashboard pattern: parallel fetches on one session, both hitting
	// an expired token at the same time.
	const callers = 2
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = m.WithAuth(context.Background(), s, func(token string) error {
				if token == "tok-1" {
					return api.ErrUnauthorized
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: WithAuth() error = %v", i, err)
		}
	}
	if got := ref.callCount(); got != 1 {
		t.Errorf("Refresh called %d times, want exactly 1", got)
	}

	stored, _ := store.Get(s.ID)
	if stored == nil || stored.Token != "tok-2" {
		t.Errorf("refreshed token not persisted: %+v", stored)
	}
}

func TestWithAuthSecondUnauthorizedExpires(t *testing.T) {
	ref := &fakeRefresher{token: "tok-2"}
	m, store := newTestManager(t, ref)
	s, _ := issueTestSession(t, m)

	calls := 0
	err := m.WithAuth(context.Background(), s, func(token string) error {
		calls++
		return api.ErrUnauthorized
	})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("WithAuth() error = %v, want ErrExpired", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want exactly 2 (retry once)", calls)
	}

	stored, _ := store.Get(s.ID)
	if stored != nil {
		t.Error("session should be destroyed after second 401")
	}
}

func TestWithAuthRefreshFailureExpires(t *testing.T) {
	ref := &fakeRefresher{err: api.ErrUnauthorized}
	m, store := newTestManager(t, ref)
	s, _ := issueTestSession(t, m)

	err := m.WithAuth(context.Background(), s, func(token string) error {
		return api.ErrUnauthorized
	})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("WithAuth() error = %v, want ErrExpired", err)
	}

	stored, _ := store.Get(s.ID)
	if stored != nil {
		t.Error("session should be destroyed when refresh fails")
	}
}

func TestWithAuthOtherErrorsUntouched(t *testing.T) {
	ref := &fakeRefresher{token: "tok-2"}
	m, _ := newTestManager(t, ref)
	s, _ := issueTestSession(t, m)

	want := &api.Error{Status: 500, Message: "HTTP 500"}
	err := m.WithAuth(context.Background(), s, func(token string) error {
		return want
	})

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("WithAuth() error = %v, want *api.Error", err)
	}
	if got := ref.callCount(); got != 0 {
		t.Errorf("Refresh called %d times for non-401 error, want 0", got)
	}
}

func TestDestroy(t *testing.T) {
	m, store := newTestManager(t, &fakeRefresher{})
	s, _ := issueTestSession(t, m)

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})
	w := httptest.NewRecorder()

	m.Destroy(w, r)

	stored, _ := store.Get(s.ID)
	if stored != nil {
		t.Error("Destroy() left the session in the store")
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" {
		t.Error("Destroy() should clear the session cookie")
	}
}
