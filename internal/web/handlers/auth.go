package handlers

import (
	"errors"
	"net/http"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/web/flash"
	"github.com/workflowai/console/internal/web/middleware"
)

const stateCookie = "oauth_state"

type loginData struct {
	Error         string
	Email         string
	GoogleEnabled bool
}

type signupData struct {
	Error    string
	Email    string
	Username string
}

// LoginPage shows the sign-in form.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", "Sign in", loginData{GoogleEnabled: h.google != nil})
}

// Login handles the password sign-in form. Empty fields re-render inline
// without touching the API.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	data := loginData{Email: email, GoogleEnabled: h.google != nil}

	if email == "" || password == "" {
		data.Error = "Email and password are required"
		h.render(w, r, "login", "Sign in", data)
		return
	}

	tok, err := h.api.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			data.Error = "Invalid email or password"
		} else {
			data.Error = apiMessage(err, "Unable to reach the server. Please try again.")
		}
		h.render(w, r, "login", "Sign in", data)
		return
	}

	if _, err := h.sessions.Issue(w, tok.AccessToken, email); err != nil {
		h.logger.Error("failed to create session", "error", err)
		data.Error = "Something went wrong. Please try again."
		h.render(w, r, "login", "Sign in", data)
		return
	}

	http.Redirect(w, r, loginTarget(w, r), http.StatusSeeOther)
}

// SignupPage shows the registration form.
func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup", "Sign up", signupData{})
}

// Signup handles registration. Local validation failures short-circuit with
// no API call.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")
	terms := r.FormValue("terms")

	data := signupData{Email: email, Username: username}

	switch {
	case username == "" || email == "" || password == "":
		data.Error = "All fields are required"
	case password != confirm:
		data.Error = "Passwords do not match"
	case terms == "":
		data.Error = "You must agree to the terms of service"
	}
	if data.Error != "" {
		h.render(w, r, "signup", "Sign up", data)
		return
	}

	res, err := h.api.Signup(r.Context(), api.SignupRequest{
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		data.Error = apiMessage(err, "Unable to reach the server. Please try again.")
		h.render(w, r, "signup", "Sign up", data)
		return
	}

	// Some API revisions return a token on signup; use it when present,
	// otherwise hand off to the login page.
	if res.AccessToken != "" {
		if _, err := h.sessions.Issue(w, res.AccessToken, email); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		h.logger.Error("failed to create session after signup")
	}

	flash.Set(w, "Account created. Please sign in.", "success")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GoogleLogin starts the Google sign-in flow.
func (h *Handlers) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		flash.Set(w, "Google sign-in is not enabled", "info")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	url, state := h.google.AuthCodeURL()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback completes the Google sign-in flow. The redirect to the
// dashboard drops the code from the visible URL.
func (h *Handlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	fail := func(msg string) {
		flash.Set(w, msg, "danger")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}

	if h.google == nil {
		fail("Google sign-in is not enabled")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		fail("Sign-in failed. Please try again.")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		fail("Sign-in was cancelled.")
		return
	}

	tok, err := h.api.ExchangeGoogleCode(r.Context(), code)
	if err != nil {
		h.logger.Error("google code exchange failed", "error", err)
		fail(apiMessage(err, "Sign-in failed. Please try again."))
		return
	}

	email := ""
	if user, err := h.api.Me(r.Context(), tok.AccessToken); err == nil {
		email = user.Email
	}

	if _, err := h.sessions.Issue(w, tok.AccessToken, email); err != nil {
		h.logger.Error("failed to create session", "error", err)
		fail("Something went wrong. Please try again.")
		return
	}

	http.Redirect(w, r, loginTarget(w, r), http.StatusSeeOther)
}

// Logout ends the session. The API call is best-effort; the local session is
// removed regardless.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if s := middleware.SessionFrom(r); s != nil {
		if err := h.api.Logout(r.Context(), s.Token); err != nil {
			h.logger.Warn("api logout failed", "error", err)
		}
	}

	h.sessions.Destroy(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
