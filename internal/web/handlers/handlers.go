package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/auth"
	"github.com/workflowai/console/internal/session"
	"github.com/workflowai/console/internal/web/flash"
	"github.com/workflowai/console/internal/web/middleware"
	"github.com/workflowai/console/internal/web/views"
)

type Handlers struct {
	api      *api.Client
	sessions *session.Manager
	google   *auth.Google
	views    *views.Engine
	logger   *slog.Logger
}

// New creates the handler set. google may be nil when Google sign-in is
// disabled.
func New(apiClient *api.Client, sessions *session.Manager, google *auth.Google, engine *views.Engine, logger *slog.Logger) *Handlers {
	return &Handlers{
		api:      apiClient,
		sessions: sessions,
		google:   google,
		views:    engine,
		logger:   logger,
	}
}

// page is the envelope every template receives.
type page struct {
	Title         string
	Authenticated bool
	Email         string
	Flash         *flash.Message
	Data          any
}

// Health check
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Home redirects the root path to the dashboard.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// render executes a page template into a buffer first so a template failure
// becomes a clean 500 instead of a half-written page.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	p := page{
		Title: title,
		Flash: flash.Take(w, r),
		Data:  data,
	}
	if s := middleware.SessionFrom(r); s != nil {
		p.Authenticated = true
		p.Email = s.Email
	}

	var buf bytes.Buffer
	if err := h.views.Render(&buf, name, p); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// redirectLogin ends the request with a clean redirect to the login page,
// clearing the session cookie. Used whenever the session turns out to be
// expired; an expired session is never shown as an error banner.
func (h *Handlers) redirectLogin(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginTarget pops the remembered pre-login path, falling back to the
// dashboard. Only same-site paths are honored.
func loginTarget(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(middleware.LoginRedirectCookie)
	if err != nil {
		return "/dashboard"
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.LoginRedirectCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	target := cookie.Value
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/dashboard"
	}
	return target
}

// apiMessage extracts the API's detail message for display, falling back to a
// generic one for transport failures.
func apiMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fallback
}

func isNotFound(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
