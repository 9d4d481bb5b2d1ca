package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wesm/leaddesk/internal/query"
)

// Engine implements query.Engine by making HTTP calls to a remote leaddesk server.
type Engine struct {
	client *Client
}

// Compile-time check that Engine implements query.Engine.
var _ query.Engine = (*Engine)(nil)

// maxLookupIDs is the server's limit on IDs per lookup request.
const maxLookupIDs = 500

// NewEngine creates a new remote query engine.
func NewEngine(cfg Config) (*Engine, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{client: c}, nil
}

// NewEngineFromClient creates a new remote query engine from an existing client.
func NewEngineFromClient(c *Client) *Engine {
	return &Engine{client: c}
}

// Client returns the underlying API client.
func (e *Engine) Client() *Client {
	return e.client
}

// Close releases resources held by the engine.
func (e *Engine) Close() error {
	return e.client.Close()
}

// leadJSON matches the API lead format.
type leadJSON struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Company      string `json:"company"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	OwnerID      string `json:"ownerId,omitempty"`
	OwnerName    string `json:"ownerName,omitempty"`
	CampaignID   *int64 `json:"campaignId,omitempty"`
	CampaignName string `json:"campaignName,omitempty"`
	ValueCents   int64  `json:"valueCents"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type paginationJSON struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type leadPageResponse struct {
	Data       []leadJSON     `json:"data"`
	Pagination paginationJSON `json:"pagination"`
}

type leadsResponse struct {
	Data []leadJSON `json:"data"`
}

type teamMemberJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type teamResponse struct {
	Data []teamMemberJSON `json:"data"`
}

type statsResponse struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	Unassigned int64            `json:"unassigned"`
	ValueCents int64            `json:"valueCents"`
}

// parseTime parses RFC3339 time string.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toLead(l leadJSON) query.Lead {
	return query.Lead{
		ID:           l.ID,
		Name:         l.Name,
		Email:        l.Email,
		Phone:        l.Phone,
		Company:      l.Company,
		Source:       l.Source,
		Status:       query.LeadStatus(l.Status),
		OwnerID:      l.OwnerID,
		OwnerName:    l.OwnerName,
		CampaignID:   l.CampaignID,
		CampaignName: l.CampaignName,
		ValueCents:   l.ValueCents,
		CreatedAt:    parseTime(l.CreatedAt),
		UpdatedAt:    parseTime(l.UpdatedAt),
	}
}

func toLeads(in []leadJSON) []query.Lead {
	out := make([]query.Lead, len(in))
	for i, l := range in {
		out[i] = toLead(l)
	}
	return out
}

// ListLeads fetches one page of leads.
func (e *Engine) ListLeads(ctx context.Context, params query.ListParams) (*query.LeadPage, error) {
	path := "/api/v1/leads"
	if q := params.Values().Encode(); q != "" {
		path += "?" + q
	}

	var resp leadPageResponse
	if err := e.client.getJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &query.LeadPage{
		Data: toLeads(resp.Data),
		Pagination: query.Pagination{
			Page:       resp.Pagination.Page,
			Limit:      resp.Pagination.Limit,
			Total:      resp.Pagination.Total,
			TotalPages: resp.Pagination.TotalPages,
		},
	}, nil
}

// GetLeadsByIDs looks leads up in batches the server accepts.
func (e *Engine) GetLeadsByIDs(ctx context.Context, ids []int64) ([]query.Lead, error) {
	var out []query.Lead
	for start := 0; start < len(ids); start += maxLookupIDs {
		chunk := ids[start:min(start+maxLookupIDs, len(ids))]
		body, err := json.Marshal(map[string][]int64{"ids": chunk})
		if err != nil {
			return nil, fmt.Errorf("encode lookup: %w", err)
		}
		var resp leadsResponse
		if err := e.client.getJSON(ctx, http.MethodPost, "/api/v1/leads/lookup", bytes.NewReader(body), &resp); err != nil {
			return nil, err
		}
		out = append(out, toLeads(resp.Data)...)
	}
	return out, nil
}

// ListTeamMembers fetches the team.
func (e *Engine) ListTeamMembers(ctx context.Context) ([]query.TeamMember, error) {
	var resp teamResponse
	if err := e.client.getJSON(ctx, http.MethodGet, "/api/v1/team", nil, &resp); err != nil {
		return nil, err
	}
	team := make([]query.TeamMember, len(resp.Data))
	for i, m := range resp.Data {
		team[i] = query.TeamMember{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	return team, nil
}

// GetStats fetches lead counts.
func (e *Engine) GetStats(ctx context.Context) (*query.LeadStats, error) {
	var resp statsResponse
	if err := e.client.getJSON(ctx, http.MethodGet, "/api/v1/stats", nil, &resp); err != nil {
		return nil, err
	}
	stats := &query.LeadStats{
		Total:      resp.Total,
		ByStatus:   make(map[query.LeadStatus]int64, len(resp.ByStatus)),
		Unassigned: resp.Unassigned,
		ValueCents: resp.ValueCents,
	}
	for k, v := range resp.ByStatus {
		stats.ByStatus[query.LeadStatus(k)] = v
	}
	return stats, nil
}
