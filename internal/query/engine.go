package query

import (
	"context"
)

// Engine provides lead queries for the list views.
// This interface can be implemented by different backends:
// - SQLiteEngine: direct SQLite queries against the local database
// - remote.Engine: HTTP calls to a leaddesk server
type Engine interface {
	// ListLeads returns one page of leads matching params, ordered and
	// paginated by the backend. Pagination.Total counts every match.
	ListLeads(ctx context.Context, params ListParams) (*LeadPage, error)

	// GetLeadsByIDs returns the leads with the given IDs. Unknown IDs are
	// skipped. Results are ordered by ID.
	GetLeadsByIDs(ctx context.Context, ids []int64) ([]Lead, error)

	// ListTeamMembers returns everyone leads can be assigned to.
	ListTeamMembers(ctx context.Context) ([]TeamMember, error)

	// GetStats returns lead counts for dashboard summaries.
	GetStats(ctx context.Context) (*LeadStats, error)

	// Close releases any resources held by the engine.
	Close() error
}
