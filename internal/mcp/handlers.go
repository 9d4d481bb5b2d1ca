package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
)

const maxIDs = 500

type handlers struct {
	engine query.Engine
	opts   listview.Options
}

type leadJSON struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Company      string `json:"company,omitempty"`
	Source       string `json:"source,omitempty"`
	Status       string `json:"status"`
	Owner        string `json:"owner,omitempty"`
	OwnerDisplay string `json:"owner_name,omitempty"`
	Campaign     string `json:"campaign,omitempty"`
	ValueCents   int64  `json:"value_cents"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type pageJSON struct {
	Leads      []leadJSON `json:"leads"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"total_pages"`
}

func toLeadJSON(l query.Lead) leadJSON {
	return leadJSON{
		ID:           l.ID,
		Name:         l.Name,
		Email:        l.Email,
		Phone:        l.Phone,
		Company:      l.Company,
		Source:       l.Source,
		Status:       string(l.Status),
		Owner:        l.OwnerID,
		OwnerDisplay: l.OwnerName,
		Campaign:     l.CampaignName,
		ValueCents:   l.ValueCents,
		CreatedAt:    l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toLeadsJSON(in []query.Lead) []leadJSON {
	out := make([]leadJSON, len(in))
	for i, l := range in {
		out[i] = toLeadJSON(l)
	}
	return out
}

// getIDsArg extracts a list of positive integer IDs. JSON numbers arrive
// as float64.
func getIDsArg(args map[string]any, key string) ([]int64, error) {
	raw, ok := args[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%s parameter is required", key)
	}
	if len(raw) > maxIDs {
		return nil, fmt.Errorf("at most %d %s per call", maxIDs, key)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || f < 1 || f > math.MaxInt64 {
			return nil, fmt.Errorf("%s must be positive integers", key)
		}
		ids = append(ids, int64(f))
	}
	return ids, nil
}

func (h *handlers) listLeads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	view, _ := args["view"].(string)
	params := listview.ParamsForQuery(view, h.opts)

	if v, ok := args["sort_by"].(string); ok && v != "" {
		if !query.IsSortable(v) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sort_by: %s", v)), nil
		}
		params.SortBy = v
		params.SortDir = query.SortDesc
	}
	if v, ok := args["sort_dir"].(string); ok && v != "" {
		params.SortDir = query.ParseSortDirection(v)
	}

	page, err := h.engine.ListLeads(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	return jsonResult(pageJSON{
		Leads:      toLeadsJSON(page.Data),
		Page:       page.Pagination.Page,
		Limit:      page.Pagination.Limit,
		Total:      page.Pagination.Total,
		TotalPages: page.Pagination.TotalPages,
	})
}

func (h *handlers) getLeads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := getIDsArg(req.GetArguments(), "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	leads, err := h.engine.GetLeadsByIDs(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return jsonResult(toLeadsJSON(leads))
}

func (h *handlers) listTeam(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, err := h.engine.ListTeamMembers(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("team failed: %v", err)), nil
	}

	type memberJSON struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
	}
	out := make([]memberJSON, len(team))
	for i, m := range team {
		out[i] = memberJSON{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	return jsonResult(out)
}

func (h *handlers) leadStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.GetStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	resp := struct {
		Total      int64            `json:"total"`
		ByStatus   map[string]int64 `json:"by_status"`
		Unassigned int64            `json:"unassigned"`
		ValueCents int64            `json:"value_cents"`
	}{
		Total:      stats.Total,
		ByStatus:   make(map[string]int64, len(query.AllStatuses)),
		Unassigned: stats.Unassigned,
		ValueCents: stats.ValueCents,
	}
	for _, st := range query.AllStatuses {
		resp.ByStatus[string(st)] = stats.ByStatus[st]
	}

	return jsonResult(resp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
