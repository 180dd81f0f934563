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

// Templates shows the template gallery.
func (h *Handlers) Templates(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFrom(r)
	ctx := r.Context()

	var templates []api.Template
	err := h.sessions.WithAuth(ctx, s, func(token string) error {
		var err error
		templates, err = h.api.ListTemplates(ctx, token)
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to load templates", "error", err)
		flash.Set(w, apiMessage(err, "Failed to load templates."), "danger")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.render(w, r, "templates", "Templates", viewmodel.Templates(templates))
}

// UseTemplate creates a workflow seeded from a template and lands the user in
// the builder for the new workflow.
func (h *Handlers) UseTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	s := middleware.SessionFrom(r)
	ctx := r.Context()

	var created *api.Workflow
	err = h.sessions.WithAuth(ctx, s, func(token string) error {
		tmpl, err := h.api.GetTemplate(ctx, token, id)
		if err != nil {
			return err
		}
		created, err = h.api.CreateWorkflow(ctx, token, api.WorkflowCreateRequest{
			Name:             "My " + tmpl.Name + " Workflow",
			Description:      tmpl.Description,
			EngineWorkflowID: tmpl.EngineWorkflowID,
		})
		return err
	})
	if errors.Is(err, session.ErrExpired) {
		h.redirectLogin(w, r)
		return
	}
	if err != nil {
		if isNotFound(err) {
			flash.Set(w, "Template not found", "danger")
		} else {
			h.logger.Error("failed to use template", "id", id, "error", err)
			flash.Set(w, apiMessage(err, "Failed to create workflow from template."), "danger")
		}
		http.Redirect(w, r, "/templates", http.StatusSeeOther)
		return
	}

	flash.Set(w, "Workflow created from template", "success")
	http.Redirect(w, r, "/builder?id="+strconv.Itoa(created.ID), http.StatusSeeOther)
}
