package handlers

import (
	"errors"
	"net/http"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/session"
	"github.com/workflowai/console/internal/web/flash"
	"github.com/workflowai/console/internal/web/middleware"
)

type settingsData struct {
	Error string
}

// Settings shows the account settings page.
func (h *Handlers) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "settings", "Settings", settingsData{})
}

// PasswordChange handles the change-password form. Local validation failures
// re-render inline with no API call.
func (h *Handlers) PasswordChange(w http.ResponseWriter, r *http.Request) {
	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirm := r.FormValue("new_password_confirm")

	data := settingsData{}
	switch {
	case current == "" || newPassword == "":
		data.Error = "All fields are required"
	case newPassword != confirm:
		data.Error = "New passwords do not match"
	case len(newPassword) < 8:
		data.Error = "Password must be at least 8 characters"
	}
	if data.Error != "" {
		h.render(w, r, "settings", "Settings", data)
		return
	}

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	err := h.sessions.WithAuth(ctx, s, func(token string) error {
		return h.api.ChangePassword(ctx, token, api.PasswordChangeRequest{
			CurrentPassword: current,
			NewPassword:     newPassword,
		})
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		data.Error = apiMessage(err, "Failed to update password.")
		h.render(w, r, "settings", "Settings", data)
		return
	}

	flash.Set(w, "Password updated", "success")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}
