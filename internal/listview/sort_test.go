package listview

import (
	"testing"

	"github.com/wesm/leaddesk/internal/navstate"
	"github.com/wesm/leaddesk/internal/query"
)

func TestSortToggle(t *testing.T) {
	s := NewSort(SortState{})
	if got := s.State(); got != DefaultSort {
		t.Fatalf("initial = %+v, want %+v", got, DefaultSort)
	}

	steps := []struct {
		column string
		want   SortState
	}{
		{query.ColumnName, SortState{Column: query.ColumnName}},
		{query.ColumnName, SortState{Column: query.ColumnName, Descending: true}},
		{query.ColumnName, SortState{Column: query.ColumnName}},
		{"phone", SortState{Column: query.ColumnName}},
		{query.ColumnCreatedAt, SortState{Column: query.ColumnCreatedAt}},
	}
	for i, step := range steps {
		s.Toggle(step.column)
		if got := s.State(); got != step.want {
			t.Errorf("step %d toggle(%q) = %+v, want %+v", i, step.column, got, step.want)
		}
	}
}

func TestSortToggleUnsortableIsNoop(t *testing.T) {
	s := NewSort(DefaultSort)
	if s.Toggle("email") {
		t.Error("Toggle(email) reported a change")
	}
	if s.Set(SortState{Column: "email"}) {
		t.Error("Set(email) reported a change")
	}
	if s.State() != DefaultSort {
		t.Errorf("state changed to %+v", s.State())
	}
}

func TestSortDoesNotResetPage(t *testing.T) {
	store := navstate.NewStore("page=4")
	c := NewComposer(store, nil, Options{})
	defer c.Close()

	c.Sort.Toggle(query.ColumnValue)
	if got := store.Read().Get(PageKey); got != "4" {
		t.Errorf("page = %q, want 4", got)
	}
	p := c.Params()
	if p.SortBy != query.ColumnValue || p.SortDir != query.SortAsc {
		t.Errorf("params sort = %s %s", p.SortBy, p.SortDir)
	}
}
