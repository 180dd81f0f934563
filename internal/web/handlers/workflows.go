package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/session"
	"github.com/workflowai/console/internal/web/flash"
	"github.com/workflowai/console/internal/web/middleware"
	"github.com/workflowai/console/internal/web/viewmodel"
)

type builderData struct {
	IsNew       bool
	ID          int
	Name        string
	Description string
	IsActive    bool
	Logs        viewmodel.LogList
}

// Builder shows the workflow form: blank for a new workflow, pre-filled with
// a recent-runs widget when editing.
func (h *Handlers) Builder(w http.ResponseWriter, r *http.Request) {
	idParam := r.URL.Query().Get("id")
	if idParam == "" {
		h.render(w, r, "builder", "New Workflow", builderData{IsNew: true})
		return
	}

	id, err := strconv.Atoi(idParam)
	if err != nil {
		flash.Set(w, "Workflow not found", "danger")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	var (
		workflow *api.Workflow
		logs     []api.ExecutionLog
	)
	err = h.sessions.WithAuth(ctx, s, func(token string) error {
		var err error
		workflow, err = h.api.GetWorkflow(ctx, token, id)
		if err != nil {
			return err
		}
		logs, err = h.api.ListLogs(ctx, token)
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		if isNotFound(err) {
			flash.Set(w, "Workflow not found", "danger")
		} else {
			h.logger.Error("failed to load workflow", "id", id, "error", err)
			flash.Set(w, apiMessage(err, "Failed to load workflow."), "danger")
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.render(w, r, "builder", "Edit Workflow", builderData{
		ID:          workflow.ID,
		Name:        workflow.Name,
		Description: workflow.Description,
		IsActive:    workflow.IsActive,
		Logs:        viewmodel.Logs(logs, id, 10),
	})
}

// WorkflowCreate handles the new-workflow form.
func (h *Handlers) WorkflowCreate(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		flash.Set(w, "Workflow name is required", "danger")
		http.Redirect(w, r, "/builder", http.StatusSeeOther)
		return
	}

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	var created *api.Workflow
	err := h.sessions.WithAuth(ctx, s, func(token string) error {
		var err error
		created, err = h.api.CreateWorkflow(ctx, token, api.WorkflowCreateRequest{
			Name:        name,
			Description: r.FormValue("description"),
		})
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to create workflow", "error", err)
		flash.Set(w, apiMessage(err, "Failed to create workflow."), "danger")
		http.Redirect(w, r, "/builder", http.StatusSeeOther)
		return
	}

	flash.Set(w, "Workflow created", "success")
	http.Redirect(w, r, "/builder?id="+strconv.Itoa(created.ID), http.StatusSeeOther)
}

// WorkflowUpdate handles the edit form.
func (h *Handlers) WorkflowUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		flash.Set(w, "Workflow name is required", "danger")
		http.Redirect(w, r, "/builder?id="+strconv.Itoa(id), http.StatusSeeOther)
		return
	}

	description := r.FormValue("description")
	isActive := r.FormValue("is_active") == "true"

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	err = h.sessions.WithAuth(ctx, s, func(token string) error {
		_, err := h.api.UpdateWorkflow(ctx, token, id, api.WorkflowUpdateRequest{
			Name:        &name,
			Description: &description,
			IsActive:    &isActive,
		})
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to update workflow", "id", id, "error", err)
		flash.Set(w, apiMessage(err, "Failed to save workflow."), "danger")
		http.Redirect(w, r, "/builder?id="+strconv.Itoa(id), http.StatusSeeOther)
		return
	}

	flash.Set(w, "Workflow saved", "success")
	http.Redirect(w, r, "/builder?id="+strconv.Itoa(id), http.StatusSeeOther)
}

// WorkflowToggle flips a workflow between active and inactive. The form
// carries the state the page showed so the flip is relative to what the user
// saw.
func (h *Handlers) WorkflowToggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	wasActive := r.FormValue("is_active") == "true"
	newState := !wasActive

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	err = h.sessions.WithAuth(ctx, s, func(token string) error {
		_, err := h.api.UpdateWorkflow(ctx, token, id, api.WorkflowUpdateRequest{
			IsActive: &newState,
		})
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to toggle workflow", "id", id, "error", err)
		flash.Set(w, apiMessage(err, "Failed to update workflow."), "danger")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if newState {
		flash.Set(w, "Workflow activated", "success")
	} else {
		flash.Set(w, "Workflow deactivated", "success")
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// WorkflowDelete removes a workflow. The browser-side confirm guard has
// already run by the time this handler sees the request.
func (h *Handlers) WorkflowDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	err = h.sessions.WithAuth(ctx, s, func(token string) error {
		return h.api.DeleteWorkflow(ctx, token, id)
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete workflow", "id", id, "error", err)
		flash.Set(w, apiMessage(err, "Failed to delete workflow."), "danger")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	flash.Set(w, "Workflow deleted", "success")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
