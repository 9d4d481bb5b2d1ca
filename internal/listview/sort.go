package listview

import (
	"sync"

	"github.com/wesm/leaddesk/internal/query"
)

// SortState is the single active sort column.
type SortState struct {
	Column     string
	Descending bool
}

// DefaultSort orders newest leads first.
var DefaultSort = SortState{Column: query.ColumnCreatedAt, Descending: true}

// Direction converts the state to a query sort direction.
func (s SortState) Direction() query.SortDirection {
	if s.Descending {
		return query.SortDesc
	}
	return query.SortAsc
}

// Sort holds the in-memory sort state. It is not persisted in the URL and
// changing it does not reset pagination.
type Sort struct {
	mu    sync.Mutex
	state SortState
}

// NewSort creates a sort controller. An unsortable initial column falls back
// to DefaultSort.
func NewSort(initial SortState) *Sort {
	if !query.IsSortable(initial.Column) {
		initial = DefaultSort
	}
	return &Sort{state: initial}
}

// State returns the current sort.
func (s *Sort) State() SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Toggle activates column ascending, or flips direction if it is already
// active. There is always exactly one active column. Columns outside the
// allow-list are ignored; the return value reports whether anything changed.
func (s *Sort) Toggle(column string) bool {
	if !query.IsSortable(column) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Column != column {
		s.state = SortState{Column: column}
		return true
	}
	s.state.Descending = !s.state.Descending
	return true
}

// Set replaces the sort state if the column is sortable.
func (s *Sort) Set(st SortState) bool {
	if !query.IsSortable(st.Column) {
		return false
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return true
}
