package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/session"
	"github.com/workflowai/console/internal/web/flash"
	"github.com/workflowai/console/internal/web/middleware"
	"github.com/workflowai/console/internal/web/viewmodel"
)

// Logs shows the full execution log table, newest first, optionally filtered
// to one workflow via ?workflow=N.
func (h *Handlers) Logs(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFrom(r)
	ctx := r.Context()

	var logs []api.ExecutionLog
	err := h.sessions.WithAuth(ctx, s, func(token string) error {
		var err error
		logs, err = h.api.ListLogs(ctx, token)
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to load logs", "error", err)
		flash.Set(w, apiMessage(err, "Failed to load logs."), "danger")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	workflowID, _ := strconv.Atoi(r.URL.Query().Get("workflow"))

	h.render(w, r, "logs", "Execution Logs", viewmodel.Logs(logs, workflowID, 0))
}
