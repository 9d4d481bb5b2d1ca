package testutil

import (
	"fmt"
	"time"

	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/testutil/ptr"
)

// LeadBuilder provides a fluent API for constructing query.Lead in tests.
type LeadBuilder struct {
	l query.Lead
}

// NewLead creates a builder with sensible defaults.
func NewLead(id int64) *LeadBuilder {
	created := ptr.Date(2024, 1, 1).Add(time.Duration(9+id) * time.Hour)
	return &LeadBuilder{
		l: query.Lead{
			ID:        id,
			Name:      fmt.Sprintf("Lead %d", id),
			Email:     fmt.Sprintf("lead%d@example.com", id),
			Company:   "Example Co",
			Source:    "web",
			Status:    query.StatusNew,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func (b *LeadBuilder) WithName(n string) *LeadBuilder {
	b.l.Name = n
	return b
}

func (b *LeadBuilder) WithStatus(s query.LeadStatus) *LeadBuilder {
	b.l.Status = s
	return b
}

func (b *LeadBuilder) WithOwner(id, name string) *LeadBuilder {
	b.l.OwnerID = id
	b.l.OwnerName = name
	return b
}

func (b *LeadBuilder) WithCompany(c string) *LeadBuilder {
	b.l.Company = c
	return b
}

func (b *LeadBuilder) WithValue(cents int64) *LeadBuilder {
	b.l.ValueCents = cents
	return b
}

func (b *LeadBuilder) WithCampaign(id int64, name string) *LeadBuilder {
	b.l.CampaignID = ptr.Int64(id)
	b.l.CampaignName = name
	return b
}

func (b *LeadBuilder) WithCreatedAt(t time.Time) *LeadBuilder {
	b.l.CreatedAt = t
	b.l.UpdatedAt = t
	return b
}

// Build returns the constructed Lead.
func (b *LeadBuilder) Build() query.Lead {
	return b.l
}

// MakeLeads returns leads with IDs first..first+n-1 using builder defaults.
func MakeLeads(first int64, n int) []query.Lead {
	leads := make([]query.Lead, n)
	for i := range leads {
		leads[i] = NewLead(first + int64(i)).Build()
	}
	return leads
}

// PageOf slices all into the page described by params, the way a backend
// would, and returns it with its pagination envelope.
func PageOf(all []query.Lead, params query.ListParams) *query.LeadPage {
	limit := params.Limit
	if limit < 1 {
		limit = 20
	}
	page := max(params.Page, 1)
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	data := make([]query.Lead, end-start)
	copy(data, all[start:end])
	return &query.LeadPage{
		Data:       data,
		Pagination: query.NewPagination(page, limit, int64(len(all))),
	}
}
