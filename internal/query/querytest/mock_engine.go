// Package querytest provides shared test doubles for the query.Engine interface.
package querytest

import (
	"context"
	"sync"

	"github.com/wesm/leaddesk/internal/query"
)

// MockEngine implements query.Engine for testing. Each method delegates to an
// optional function field; when the field is nil, the in-memory fields are
// used. ListLeads pages over Leads in order and ignores filters.
type MockEngine struct {
	Leads []query.Lead
	Team  []query.TeamMember
	Stats *query.LeadStats

	// Optional overrides, set these to customise behavior per-test.
	ListLeadsFunc       func(context.Context, query.ListParams) (*query.LeadPage, error)
	GetLeadsByIDsFunc   func(context.Context, []int64) ([]query.Lead, error)
	ListTeamMembersFunc func(context.Context) ([]query.TeamMember, error)
	GetStatsFunc        func(context.Context) (*query.LeadStats, error)

	mu         sync.Mutex
	listCalls  []query.ListParams
	idLookups  [][]int64
	closeCalls int
}

// Compile-time check.
var _ query.Engine = (*MockEngine)(nil)

func (m *MockEngine) ListLeads(ctx context.Context, params query.ListParams) (*query.LeadPage, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, params)
	m.mu.Unlock()

	if m.ListLeadsFunc != nil {
		return m.ListLeadsFunc(ctx, params)
	}
	limit := params.Limit
	if limit < 1 {
		limit = query.DefaultLimit
	}
	page := max(params.Page, 1)
	start := min((page-1)*limit, len(m.Leads))
	end := min(start+limit, len(m.Leads))
	data := make([]query.Lead, end-start)
	copy(data, m.Leads[start:end])
	return &query.LeadPage{
		Data:       data,
		Pagination: query.NewPagination(page, limit, int64(len(m.Leads))),
	}, nil
}

func (m *MockEngine) GetLeadsByIDs(ctx context.Context, ids []int64) ([]query.Lead, error) {
	m.mu.Lock()
	m.idLookups = append(m.idLookups, append([]int64(nil), ids...))
	m.mu.Unlock()

	if m.GetLeadsByIDsFunc != nil {
		return m.GetLeadsByIDsFunc(ctx, ids)
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []query.Lead
	for _, l := range m.Leads {
		if want[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *MockEngine) ListTeamMembers(ctx context.Context) ([]query.TeamMember, error) {
	if m.ListTeamMembersFunc != nil {
		return m.ListTeamMembersFunc(ctx)
	}
	return m.Team, nil
}

func (m *MockEngine) GetStats(ctx context.Context) (*query.LeadStats, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx)
	}
	if m.Stats != nil {
		return m.Stats, nil
	}
	return &query.LeadStats{Total: int64(len(m.Leads))}, nil
}

func (m *MockEngine) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.mu.Unlock()
	return nil
}

// ListCalls returns a copy of every ListParams passed to ListLeads.
func (m *MockEngine) ListCalls() []query.ListParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]query.ListParams(nil), m.listCalls...)
}

// IDLookups returns a copy of every ID batch passed to GetLeadsByIDs.
func (m *MockEngine) IDLookups() [][]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]int64(nil), m.idLookups...)
}

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls > 0
}
