package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
)

// handleKey routes a key press to the modal, the search bar or the table.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.modal != modalNone {
		return m.handleModalKeys(msg)
	}
	if m.searching {
		return m.handleSearchKeys(msg)
	}
	return m.handleListKeys(msg)
}

// handleSearchKeys handles keys while the inline search bar has focus.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		if m.list.Search.Flush() {
			m.resetCursor()
			cmd := m.reload()
			return m, cmd
		}
		return m, nil

	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		if m.list.Search.Clear() {
			m.resetCursor()
			cmd := m.reload()
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	value := m.searchInput.Value()
	if value == before {
		return m, cmd
	}

	// Each keystroke restarts the debounce; only the newest token settles.
	tok := m.list.Search.Type(value)
	debounce := tea.Tick(m.list.Search.Delay(), func(time.Time) tea.Msg {
		return searchDebounceMsg{token: tok}
	})
	return m, tea.Batch(cmd, debounce)
}

// handleListKeys handles keys on the lead table.
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.navigateList(msg.String(), len(m.leads())) {
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.modal = modalHelp
		return m, nil

	// Paging
	case "n", "right", "pgdown":
		return m.changePage(1)
	case "p", "left", "pgup":
		return m.changePage(-1)
	case "L":
		limit := m.list.Pagination.NextLimit()
		m.resetCursor()
		cmd := tea.Batch(m.reload(), m.showFlash(pageSizeLabel(limit), export.NoticeInfo))
		return m, cmd

	// Search
	case "/":
		m.searching = true
		m.searchInput.SetValue(m.list.Search.Input())
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd

	// Filters
	case "s":
		m.modal = modalStatusFilter
		m.modalCursor = 0
		return m, nil
	case "o":
		m.modal = modalOwnerFilter
		m.modalCursor = 0
		return m, nil
	case "d":
		m.modal = modalDateFilter
		m.modalCursor = max(indexOfPreset(m.list.Dates.Selection().Preset), 0)
		return m, nil
	case "c":
		return m.clearFilters()

	// Sort
	case "S":
		m.list.Sort.Toggle(nextSortColumn(m.list.Sort.State().Column))
		cmd := m.reload()
		return m, cmd
	case "r":
		m.list.Sort.Toggle(m.list.Sort.State().Column)
		cmd := m.reload()
		return m, cmd

	// History
	case "[", "alt+left":
		if m.list.Store.Back() {
			return m.afterNavigate()
		}
		return m, nil
	case "]", "alt+right":
		if m.list.Store.Forward() {
			return m.afterNavigate()
		}
		return m, nil

	// Selection
	case " ", "space":
		if l, ok := m.currentLead(); ok {
			m.selected.Toggle(l.ID)
		}
		return m, nil
	case "a":
		m.selected.SelectAllVisible(m.list.VisibleIDs())
		return m, nil
	case "x":
		m.selected.Clear()
		return m, nil

	// Export
	case "e":
		return m.requestExport(export.ScopeSelection)
	case "E":
		return m.requestExport(export.ScopeFiltered)
	case "f":
		return m.toggleFormat()

	// Retry
	case "R", "ctrl+r":
		m.list.Invalidate()
		cmd := tea.Batch(m.reload(), m.loadStats(), m.loadTeam())
		return m, cmd
	}

	return m, nil
}

// handleModalKeys handles keys while a modal is open.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalHelp:
		m.modal = modalNone
		return m, nil

	case modalExportConfirm:
		return m.handleExportConfirmKeys(msg)

	case modalStatusFilter, modalOwnerFilter, modalDateFilter:
		return m.handleFilterModalKeys(msg)
	}
	return m, nil
}

func (m Model) handleFilterModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.modalOptions())
	switch msg.String() {
	case "esc", "q":
		m.modal = modalNone
		return m, nil
	case "j", "down":
		if m.modalCursor < n-1 {
			m.modalCursor++
		}
		return m, nil
	case "k", "up":
		if m.modalCursor > 0 {
			m.modalCursor--
		}
		return m, nil
	case " ", "space":
		return m.applyModalOption()
	case "enter":
		if m.modal != modalDateFilter {
			m.modal = modalNone
			return m, nil
		}
		model, cmd := m.applyModalOption()
		mm := model.(Model)
		mm.modal = modalNone
		return mm, cmd
	}
	return m, nil
}

// modalOption is one row of a filter modal.
type modalOption struct {
	label   string
	value   string
	checked bool
}

// modalOptions lists the rows of the open filter modal.
func (m Model) modalOptions() []modalOption {
	switch m.modal {
	case modalStatusFilter:
		opts := make([]modalOption, len(query.AllStatuses))
		for i, st := range query.AllStatuses {
			opts[i] = modalOption{label: st.Label(), value: string(st), checked: m.list.Status.Has(string(st))}
		}
		return opts

	case modalOwnerFilter:
		opts := []modalOption{{
			label:   "Unassigned",
			value:   query.UnassignedOwner,
			checked: m.list.Owner.Has(query.UnassignedOwner),
		}}
		for _, tm := range m.team {
			opts = append(opts, modalOption{label: tm.Name, value: tm.ID, checked: m.list.Owner.Has(tm.ID)})
		}
		return opts

	case modalDateFilter:
		cur := m.list.Dates.Selection().Preset
		opts := []modalOption{{label: listview.PresetAll.Label(), checked: m.list.Dates.Selection().IsZero()}}
		for _, p := range listview.Presets {
			opts = append(opts, modalOption{label: p.Label(), value: string(p), checked: cur == p})
		}
		return opts
	}
	return nil
}

// applyModalOption toggles or selects the option under the modal cursor.
// Filter changes return to page 1 and the selection is kept.
func (m Model) applyModalOption() (tea.Model, tea.Cmd) {
	opts := m.modalOptions()
	if m.modalCursor < 0 || m.modalCursor >= len(opts) {
		return m, nil
	}
	opt := opts[m.modalCursor]
	switch m.modal {
	case modalStatusFilter:
		m.list.Status.Toggle(opt.value)
	case modalOwnerFilter:
		m.list.Owner.Toggle(opt.value)
	case modalDateFilter:
		m.list.Dates.ApplyPreset(listview.Preset(opt.value))
	}
	m.resetCursor()
	cmd := m.reload()
	return m, cmd
}

func indexOfPreset(p listview.Preset) int {
	if p == listview.PresetAll {
		return 0
	}
	for i, q := range listview.Presets {
		if q == p {
			return i + 1
		}
	}
	return -1
}
