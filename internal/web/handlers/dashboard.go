package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/session"
	"github.com/workflowai/console/internal/web/middleware"
	"github.com/workflowai/console/internal/web/viewmodel"
)

type dashboardData struct {
	Stats        viewmodel.DashboardStats
	Workflows    viewmodel.WorkflowList
	WorkflowsErr string
	Logs         viewmodel.LogList
	LogsErr      string
}

// Dashboard fetches workflows and recent logs as two independent requests.
// Each container renders its own data or its own error state; one failing
// never blanks the other.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFrom(r)
	ctx := r.Context()

	var (
		workflows    []api.Workflow
		workflowsErr error
		logs         []api.ExecutionLog
		logsErr      error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		workflowsErr = h.sessions.WithAuth(ctx, s, func(token string) error {
			var err error
			workflows, err = h.api.ListWorkflows(ctx, token)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		logsErr = h.sessions.WithAuth(ctx, s, func(token string) error {
			var err error
			logs, err = h.api.ListLogs(ctx, token)
			return err
		})
	}()
	wg.Wait()

	if errors.Is(workflowsErr, session.ErrExpired) || errors.Is(logsErr, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}

	data := dashboardData{
		Stats:     viewmodel.Stats(workflows),
		Workflows: viewmodel.Workflows(workflows),
		Logs:      viewmodel.Logs(logs, 0, 10),
	}
	if workflowsErr != nil {
		h.logger.Error("failed to load workflows", "error", workflowsErr)
		data.WorkflowsErr = apiMessage(workflowsErr, "Failed to load workflows.")
	}
	if logsErr != nil {
		h.logger.Error("failed to load logs", "error", logsErr)
		data.LogsErr = apiMessage(logsErr, "Failed to load recent runs.")
	}

	h.render(w, r, "dashboard", "Dashboard", data)
}
