package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/leaddesk/internal/export"
)

// exportName derives the file name prefix for an export of the current view.
func (m Model) exportName(scope export.Scope) string {
	if scope == export.ScopeSelection {
		return "leads-selected"
	}
	parts := []string{"leads"}
	parts = append(parts, m.list.Status.Values()...)
	if sel := m.list.Dates.Selection(); !sel.IsZero() && sel.Preset != "" {
		parts = append(parts, string(sel.Preset))
	}
	return export.SanitizeFilename(strings.Join(parts, "-"))
}

// requestExport asks the orchestrator to export the selection or the
// current view. Large exports open the confirmation modal.
func (m Model) requestExport(scope export.Scope) (tea.Model, tea.Cmd) {
	req := export.Request{Scope: scope, Format: m.format, Name: m.exportName(scope)}
	if scope == export.ScopeSelection {
		req.IDs = m.selected.IDs()
	} else {
		req.Params = m.list.Params()
		req.Total = m.list.Total()
	}

	state, err := m.exporter.Request(req)
	switch {
	case errors.Is(err, export.ErrBusy):
		cmd := m.showFlash("An export is already running", export.NoticeInfo)
		return m, cmd
	case err != nil:
		// The orchestrator has already sent the notice.
		return m, nil
	}

	switch state {
	case export.Confirming:
		m.modal = modalExportConfirm
		return m, nil
	case export.Running:
		return m, exportTick()
	}
	return m, nil
}

func (m Model) handleExportConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.modal = modalNone
		if err := m.exporter.Confirm(); err != nil {
			return m, nil
		}
		return m, exportTick()
	case "n", "N", "esc", "q":
		m.modal = modalNone
		_ = m.exporter.Cancel()
		return m, nil
	}
	return m, nil
}

// toggleFormat switches between CSV and Excel output.
func (m Model) toggleFormat() (tea.Model, tea.Cmd) {
	if m.format == export.FormatCSV {
		m.format = export.FormatExcel
	} else {
		m.format = export.FormatCSV
	}
	cmd := m.showFlash("Export format: "+m.format.Label(), export.NoticeInfo)
	return m, cmd
}

// clearFilters removes search and every filter. The selection is kept.
func (m Model) clearFilters() (tea.Model, tea.Cmd) {
	m.searchInput.SetValue("")
	m.list.Search.Clear()
	m.list.Status.Clear()
	m.list.Owner.Clear()
	m.list.Dates.Clear()
	m.resetCursor()
	cmd := m.reload()
	return m, cmd
}
