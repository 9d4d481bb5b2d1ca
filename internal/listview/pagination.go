// Package listview implements the controllers behind the lead list: paging,
// debounced search, filters and sort. Every URL-backed controller reads and
// writes a shared navstate.Store, so any view is reconstructable from its
// query string.
package listview

import (
	"slices"
	"strconv"

	"github.com/wesm/leaddesk/internal/navstate"
)

// Navigation keys owned by the controllers in this package.
const (
	PageKey   = navstate.PageKey
	LimitKey  = "limit"
	SearchKey = "search"
	StatusKey = "status"
	OwnerKey  = "owner"
	RangeKey  = "range"
	FromKey   = "from"
	ToKey     = "to"
)

// DefaultLimits is the allowed page-size set.
var DefaultLimits = []int{10, 20, 25, 50}

// DefaultLimit is the page size used when the URL carries none or an invalid one.
const DefaultLimit = 20

// PaginationState is the current page position.
type PaginationState struct {
	Page  int
	Limit int
}

// Pagination owns the page and limit keys.
type Pagination struct {
	store        *navstate.Store
	limits       []int
	defaultLimit int
}

// NewPagination creates a pagination controller. A nil or empty limits uses
// DefaultLimits; a defaultLimit outside limits falls back to the first entry.
func NewPagination(store *navstate.Store, limits []int, defaultLimit int) *Pagination {
	if len(limits) == 0 {
		limits = DefaultLimits
	}
	limits = slices.Clone(limits)
	slices.Sort(limits)
	if !slices.Contains(limits, defaultLimit) {
		if slices.Contains(limits, DefaultLimit) {
			defaultLimit = DefaultLimit
		} else {
			defaultLimit = limits[0]
		}
	}
	return &Pagination{store: store, limits: limits, defaultLimit: defaultLimit}
}

// Limits returns the allowed page sizes in ascending order.
func (p *Pagination) Limits() []int {
	return slices.Clone(p.limits)
}

// DefaultLimit returns the fallback page size.
func (p *Pagination) DefaultLimit() int {
	return p.defaultLimit
}

// State reads the current position from the store.
func (p *Pagination) State() PaginationState {
	return p.Read(p.store.Read())
}

// Read parses pagination from s. Missing or malformed values coerce to
// page 1 and the default limit.
func (p *Pagination) Read(s navstate.State) PaginationState {
	st := PaginationState{Page: 1, Limit: p.defaultLimit}
	if n, err := strconv.Atoi(s.Get(PageKey)); err == nil && n >= 1 {
		st.Page = n
	}
	if n, err := strconv.Atoi(s.Get(LimitKey)); err == nil && slices.Contains(p.limits, n) {
		st.Limit = n
	}
	return st
}

// Write serializes st into s.
func (p *Pagination) Write(s *navstate.State, st PaginationState) {
	s.Set(PageKey, strconv.Itoa(max(st.Page, 1)))
	limit := st.Limit
	if !slices.Contains(p.limits, limit) {
		limit = p.defaultLimit
	}
	s.Set(LimitKey, strconv.Itoa(limit))
}

// SetPage moves to page n, clamped to at least 1. Other keys are untouched.
func (p *Pagination) SetPage(n int) {
	p.store.Commit(func(s *navstate.State) {
		s.Set(PageKey, strconv.Itoa(max(n, 1)))
	}, navstate.CommitOptions{})
}

// SetLimit changes the page size and returns to page 1. Sizes outside the
// allowed set fall back to the default.
func (p *Pagination) SetLimit(limit int) {
	if !slices.Contains(p.limits, limit) {
		limit = p.defaultLimit
	}
	p.store.Commit(func(s *navstate.State) {
		s.Set(LimitKey, strconv.Itoa(limit))
	}, navstate.CommitOptions{ResetPage: true})
}

// NextPage advances one page unless already on the last of totalPages.
// It reports whether the page changed.
func (p *Pagination) NextPage(totalPages int) bool {
	cur := p.State().Page
	if cur >= totalPages {
		return false
	}
	p.SetPage(cur + 1)
	return true
}

// PrevPage goes back one page unless already on page 1.
func (p *Pagination) PrevPage() bool {
	cur := p.State().Page
	if cur <= 1 {
		return false
	}
	p.SetPage(cur - 1)
	return true
}

// NextLimit cycles to the next allowed page size, wrapping around.
func (p *Pagination) NextLimit() int {
	cur := p.State().Limit
	i := slices.Index(p.limits, cur)
	next := p.limits[(i+1)%len(p.limits)]
	p.SetLimit(next)
	return next
}
