// Package query provides the data-source layer for the lead list views.
// It defines the request descriptor the list controllers produce, the page
// shape they consume, and a backend-agnostic Engine interface implemented by
// the SQLite engine and the remote HTTP engine.
package query

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusClaimed     LeadStatus = "claimed"
	StatusContacted   LeadStatus = "contacted"
	StatusClosed      LeadStatus = "closed"
	StatusLost        LeadStatus = "lost"
	StatusUnreachable LeadStatus = "unreachable"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []LeadStatus{
	StatusNew,
	StatusClaimed,
	StatusContacted,
	StatusClosed,
	StatusLost,
	StatusUnreachable,
}

// Valid reports whether s is one of the known statuses.
func (s LeadStatus) Valid() bool {
	return slices.Contains(AllStatuses, s)
}

// Label returns a display label for the status.
func (s LeadStatus) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusClaimed:
		return "Claimed"
	case StatusContacted:
		return "Contacted"
	case StatusClosed:
		return "Closed"
	case StatusLost:
		return "Lost"
	case StatusUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// ParseStatus converts a token to a LeadStatus. Matching is case-insensitive.
func ParseStatus(s string) (LeadStatus, bool) {
	st := LeadStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// UnassignedOwner is the owner filter token meaning "no owner". Team member
// IDs may never start with "__", so it cannot collide with a real ID.
const UnassignedOwner = "__unassigned__"

// ValidOwnerID reports whether id is usable as a team member identifier.
func ValidOwnerID(id string) bool {
	return id != "" && !strings.HasPrefix(id, "__") && !strings.ContainsAny(id, ", \t\n")
}

// Lead is a single row of the lead table.
type Lead struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Company      string
	Source       string
	Status       LeadStatus
	OwnerID      string // empty when unassigned
	OwnerName    string
	CampaignID   *int64
	CampaignName string
	ValueCents   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TeamMember is a user leads can be assigned to.
type TeamMember struct {
	ID    string
	Name  string
	Email string
}

// SortDirection represents ascending or descending sort order.
type SortDirection int

const (
	SortDesc SortDirection = iota
	SortAsc
)

func (d SortDirection) String() string {
	if d == SortAsc {
		return "asc"
	}
	return "desc"
}

// ParseSortDirection parses "asc" or "desc"; anything else is descending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(s, "asc") {
		return SortAsc
	}
	return SortDesc
}

// Sortable column identifiers.
const (
	ColumnCreatedAt = "createdAt"
	ColumnUpdatedAt = "updatedAt"
	ColumnName      = "name"
	ColumnCompany   = "company"
	ColumnStatus    = "status"
	ColumnValue     = "value"
)

// SortableColumns is the allow-list of columns the data source can order by.
var SortableColumns = []string{
	ColumnCreatedAt,
	ColumnUpdatedAt,
	ColumnName,
	ColumnCompany,
	ColumnStatus,
	ColumnValue,
}

// IsSortable reports whether column is in SortableColumns.
func IsSortable(column string) bool {
	return slices.Contains(SortableColumns, column)
}

// DateLayout is the ISO date format of from/to view keys. The API also accepts
// it for dateFrom and dateTo.
const DateLayout = "2006-01-02"

// ListParams is the request descriptor sent to the data source. Unset
// dimensions are left empty/nil so the backend applies no constraint.
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	Statuses []LeadStatus
	Owners   []string
	SortBy   string
	SortDir  SortDirection
	DateFrom *time.Time // inclusive day, midnight in the viewer's zone
	DateTo   *time.Time // inclusive day, midnight in the viewer's zone
}

// Offset returns the row offset for Page and Limit.
func (p ListParams) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Key renders the full parameter tuple. Two descriptors with the same key
// describe the same page of the same result set.
func (p ListParams) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "p=%d|l=%d|q=%s|sort=%s:%s", p.Page, p.Limit, strconv.Quote(p.Search), p.SortBy, p.SortDir)
	if len(p.Statuses) > 0 {
		parts := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			parts[i] = string(s)
		}
		b.WriteString("|status=" + strings.Join(parts, ","))
	}
	if len(p.Owners) > 0 {
		b.WriteString("|owner=" + strings.Join(p.Owners, ","))
	}
	if p.DateFrom != nil {
		b.WriteString("|from=" + p.DateFrom.Format(time.RFC3339))
	}
	if p.DateTo != nil {
		b.WriteString("|to=" + p.DateTo.Format(time.RFC3339))
	}
	return b.String()
}

// WithPage returns a copy of p positioned at page with the given limit.
func (p ListParams) WithPage(page, limit int) ListParams {
	c := p
	c.Page = page
	c.Limit = limit
	return c
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// NewPagination computes TotalPages from total and limit.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// LeadPage is one page of results plus its pagination envelope.
type LeadPage struct {
	Data       []Lead
	Pagination Pagination
}

// IDs returns the IDs of the leads on the page in display order.
func (p *LeadPage) IDs() []int64 {
	if p == nil {
		return nil
	}
	ids := make([]int64, len(p.Data))
	for i, l := range p.Data {
		ids[i] = l.ID
	}
	return ids
}

func sortLeadsByID(leads []Lead) {
	slices.SortFunc(leads, func(a, b Lead) int { return cmp.Compare(a.ID, b.ID) })
}

// LeadStats summarises the lead table.
type LeadStats struct {
	Total      int64
	ByStatus   map[LeadStatus]int64
	Unassigned int64
	ValueCents int64
}
