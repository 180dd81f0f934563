// Package viewmodel turns API records into the shapes the templates render.
// Pure data transforms: no HTTP, no template coupling.
package viewmodel

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/workflowai/console/internal/api"
)

// WorkflowCard is one workflow as shown on the dashboard.
type WorkflowCard struct {
	ID          int
	Name        string
	Description string
	IsActive    bool
	StatusLabel string
	ToggleLabel string
}

// WorkflowList backs the dashboard's workflow container.
type WorkflowList struct {
	Empty bool
	Items []WorkflowCard
}

// Workflows builds the dashboard cards, preserving API order and filling
// placeholders for absent fields.
func Workflows(ws []api.Workflow) WorkflowList {
	list := WorkflowList{Empty: len(ws) == 0}
	for _, w := range ws {
		card := WorkflowCard{
			ID:          w.ID,
			Name:        w.Name,
			Description: w.Description,
			IsActive:    w.IsActive,
			StatusLabel: "Inactive",
			ToggleLabel: "Activate",
		}
		if card.Name == "" {
			card.Name = "Unnamed Workflow"
		}
		if card.Description == "" {
			card.Description = "No description provided"
		}
		if w.IsActive {
			card.StatusLabel = "Active"
			card.ToggleLabel = "Deactivate"
		}
		list.Items = append(list.Items, card)
	}
	return list
}

// LogRow is one execution log entry.
type LogRow struct {
	ID            int
	WorkflowID    int
	StatusLabel   string
	StatusClass   string
	Icon          string
	ExecutionTime string
	Details       string
}

// LogList backs the log table and the recent-runs widgets.
type LogList struct {
	Empty bool
	Items []LogRow
}

// Logs filters to one workflow when workflowID > 0, sorts newest first and
// caps the result when limit > 0.
func Logs(logs []api.ExecutionLog, workflowID, limit int) LogList {
	rows := make([]api.ExecutionLog, 0, len(logs))
	for _, l := range logs {
		if workflowID > 0 && l.WorkflowID != workflowID {
			continue
		}
		rows = append(rows, l)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	list := LogList{Empty: len(rows) == 0}
	for _, l := range rows {
		row := LogRow{
			ID:            l.ID,
			WorkflowID:    l.WorkflowID,
			StatusLabel:   statusLabel(l.Status),
			StatusClass:   statusClass(l.Status),
			Icon:          statusIcon(l.Status),
			ExecutionTime: l.ExecutionTime,
			Details:       l.Details,
		}
		if row.ExecutionTime == "" {
			row.ExecutionTime = "N/A"
		}
		if row.Details == "" {
			row.Details = "No details provided"
		}
		list.Items = append(list.Items, row)
	}
	return list
}

func statusLabel(status string) string {
	if status == "" {
		return "Unknown"
	}
	r, size := utf8.DecodeRuneInString(status)
	return string(unicode.ToUpper(r)) + status[size:]
}

func statusClass(status string) string {
	switch status {
	case "success":
		return "log-success"
	case "error":
		return "log-error"
	case "warning":
		return "log-warning"
	default:
		return "log-warning"
	}
}

func statusIcon(status string) string {
	switch status {
	case "success":
		return "check-circle"
	case "error":
		return "exclamation-triangle"
	default:
		return "exclamation-circle"
	}
}

// TemplateCard is one template on the templates page.
type TemplateCard struct {
	ID          int
	Name        string
	Description string
	Category    string
}

// TemplateList backs the templates page.
type TemplateList struct {
	Empty bool
	Items []TemplateCard
}

// Templates builds the template cards.
func Templates(ts []api.Template) TemplateList {
	list := TemplateList{Empty: len(ts) == 0}
	for _, t := range ts {
		card := TemplateCard{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
		}
		if card.Description == "" {
			card.Description = "No description provided"
		}
		if card.Category == "" {
			card.Category = "General"
		}
		list.Items = append(list.Items, card)
	}
	return list
}

// DashboardStats is the dashboard's summary widget.
type DashboardStats struct {
	Total  int
	Active int
}

// Stats derives the summary counts from the workflow list.
func Stats(ws []api.Workflow) DashboardStats {
	s := DashboardStats{Total: len(ws)}
	for _, w := range ws {
		if w.IsActive {
			s.Active++
		}
	}
	return s
}
