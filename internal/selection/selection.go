// Package selection tracks selected rows by stable ID. Membership survives
// paging, filtering and sorting; only Toggle and Clear remove entries.
package selection

import (
	"cmp"
	"slices"
)

// TriState summarises how much of the visible page is selected.
type TriState int

const (
	TriNone TriState = iota
	TriSome
	TriAll
)

func (t TriState) String() string {
	switch t {
	case TriSome:
		return "some"
	case TriAll:
		return "all"
	default:
		return "none"
	}
}

// Set is a selection keyed by row ID. The zero value is empty and ready to
// use. Set is not safe for concurrent use; the list view owns it.
type Set[K cmp.Ordered] struct {
	ids map[K]struct{}
}

// New returns an empty selection.
func New[K cmp.Ordered]() *Set[K] {
	return &Set[K]{}
}

// IsSelected reports whether id is selected.
func (s *Set[K]) IsSelected(id K) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id.
func (s *Set[K]) Toggle(id K) {
	if s.IsSelected(id) {
		delete(s.ids, id)
		return
	}
	s.add(id)
}

func (s *Set[K]) add(id K) {
	if s.ids == nil {
		s.ids = make(map[K]struct{})
	}
	s.ids[id] = struct{}{}
}

// SelectAllVisible deselects every visible ID when all of them are already
// selected, and otherwise selects them all. IDs outside visible are never
// touched.
func (s *Set[K]) SelectAllVisible(visible []K) {
	if s.IsAllSelected(visible) {
		for _, id := range visible {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range visible {
		s.add(id)
	}
}

// Clear empties the selection.
func (s *Set[K]) Clear() {
	s.ids = nil
}

// Select adds ids without toggling.
func (s *Set[K]) Select(ids ...K) {
	for _, id := range ids {
		s.add(id)
	}
}

// State derives the header checkbox state for visible.
func (s *Set[K]) State(visible []K) TriState {
	if len(visible) == 0 {
		return TriNone
	}
	n := 0
	for _, id := range visible {
		if s.IsSelected(id) {
			n++
		}
	}
	switch {
	case n == 0:
		return TriNone
	case n == len(visible):
		return TriAll
	default:
		return TriSome
	}
}

// IsAllSelected reports whether visible is non-empty and fully selected.
func (s *Set[K]) IsAllSelected(visible []K) bool {
	return s.State(visible) == TriAll
}

// IsSomeSelected reports whether some but not all of visible is selected.
func (s *Set[K]) IsSomeSelected(visible []K) bool {
	return s.State(visible) == TriSome
}

// Len returns the number of selected IDs, visible or not.
func (s *Set[K]) Len() int {
	return len(s.ids)
}

// IDs returns the selected IDs in ascending order.
func (s *Set[K]) IDs() []K {
	out := make([]K, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// CountVisible returns how many of visible are selected.
func (s *Set[K]) CountVisible(visible []K) int {
	n := 0
	for _, id := range visible {
		if s.IsSelected(id) {
			n++
		}
	}
	return n
}
