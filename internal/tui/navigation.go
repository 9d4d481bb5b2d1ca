package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/leaddesk/internal/query"
)

// calculateScrollOffset computes the new scroll offset to keep cursor visible within pageSize.
func calculateScrollOffset(cursor, currentOffset, pageSize int) int {
	if cursor < currentOffset {
		return cursor
	}
	if cursor >= currentOffset+pageSize {
		return cursor - pageSize + 1
	}
	return currentOffset
}

// ensureCursorVisible adjusts the scroll offset so the cursor row is on screen.
func (m *Model) ensureCursorVisible() {
	m.scrollOffset = calculateScrollOffset(m.cursor, m.scrollOffset, m.pageSize())
}

// navigateList moves the cursor for the common movement keys.
// Returns true if the key was handled.
func (m *Model) navigateList(key string, itemCount int) bool {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < itemCount-1 {
			m.cursor++
		}
	case "ctrl+u":
		m.cursor = max(m.cursor-m.pageSize()/2, 0)
	case "ctrl+d":
		m.cursor = max(min(m.cursor+m.pageSize()/2, itemCount-1), 0)
	case "home", "g":
		m.cursor = 0
		m.scrollOffset = 0
	case "end", "G":
		m.cursor = max(itemCount-1, 0)
	default:
		return false
	}
	m.ensureCursorVisible()
	return true
}

// changePage moves delta pages forward or back within the known page count.
func (m Model) changePage(delta int) (tea.Model, tea.Cmd) {
	moved := false
	if delta > 0 {
		if p := m.list.Page(); p != nil {
			moved = m.list.Pagination.NextPage(p.Pagination.TotalPages)
		}
	} else {
		moved = m.list.Pagination.PrevPage()
	}
	if !moved {
		return m, nil
	}
	m.resetCursor()
	cmd := m.reload()
	return m, cmd
}

// resetCursor returns to the top of the table.
func (m *Model) resetCursor() {
	m.cursor = 0
	m.scrollOffset = 0
}

// afterNavigate syncs the search bar with a history step and reloads.
func (m Model) afterNavigate() (tea.Model, tea.Cmd) {
	m.searchInput.SetValue(m.list.Search.Input())
	m.resetCursor()
	cmd := m.reload()
	return m, cmd
}

// nextSortColumn cycles through the sortable columns.
func nextSortColumn(cur string) string {
	for i, c := range query.SortableColumns {
		if c == cur {
			return query.SortableColumns[(i+1)%len(query.SortableColumns)]
		}
	}
	return query.SortableColumns[0]
}
