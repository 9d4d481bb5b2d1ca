package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wesm/leaddesk/internal/query"
)

// MaxLookupIDs caps the IDs accepted by one lookup request.
const MaxLookupIDs = 500

// Lead is the API representation of a lead.
type Lead struct {
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

// Pagination is the paging envelope of list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// LeadListResponse is one page of leads.
type LeadListResponse struct {
	Data       []Lead     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// LeadsResponse is a list of leads without paging.
type LeadsResponse struct {
	Data []Lead `json:"data"`
}

// LookupRequest is the body of a lookup request.
type LookupRequest struct {
	IDs []int64 `json:"ids"`
}

// TeamMember is the API representation of a team member.
type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TeamResponse lists team members.
type TeamResponse struct {
	Data []TeamMember `json:"data"`
}

// StatsResponse carries lead counts.
type StatsResponse struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	Unassigned int64            `json:"unassigned"`
	ValueCents int64            `json:"valueCents"`
}

// ScheduledExportInfo describes one scheduled export.
type ScheduledExportInfo struct {
	Name     string `json:"name"`
	View     string `json:"view"`
	Schedule string `json:"schedule"`
	Running  bool   `json:"running"`
	LastRun  string `json:"lastRun,omitempty"`
	NextRun  string `json:"nextRun,omitempty"`
	LastFile string `json:"lastFile,omitempty"`
	LastErr  string `json:"lastError,omitempty"`
}

// ExportStatusResponse represents scheduler status.
type ExportStatusResponse struct {
	Running bool                  `json:"running"`
	Exports []ScheduledExportInfo `json:"exports"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toLead(l query.Lead) Lead {
	return Lead{
		ID:           l.ID,
		Name:         l.Name,
		Email:        l.Email,
		Phone:        l.Phone,
		Company:      l.Company,
		Source:       l.Source,
		Status:       string(l.Status),
		OwnerID:      l.OwnerID,
		OwnerName:    l.OwnerName,
		CampaignID:   l.CampaignID,
		CampaignName: l.CampaignName,
		ValueCents:   l.ValueCents,
		CreatedAt:    formatTime(l.CreatedAt),
		UpdatedAt:    formatTime(l.UpdatedAt),
	}
}

func toLeads(in []query.Lead) []Lead {
	out := make([]Lead, len(in))
	for i, l := range in {
		out[i] = toLead(l)
	}
	return out
}

func (s *Server) requireEngine(w http.ResponseWriter) bool {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "Database not available")
		return false
	}
	return true
}

// handleListLeads returns one page of leads matching the query parameters.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	params := query.ParseValues(r.URL.Query())
	page, err := s.engine.ListLeads(r.Context(), params)
	if err != nil {
		s.logger.Error("failed to list leads", "params", params.Key(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list leads")
		return
	}

	writeJSON(w, http.StatusOK, LeadListResponse{
		Data: toLeads(page.Data),
		Pagination: Pagination{
			Page:       page.Pagination.Page,
			Limit:      page.Pagination.Limit,
			Total:      page.Pagination.Total,
			TotalPages: page.Pagination.TotalPages,
		},
	})
}

// handleLookupLeads returns the leads with the posted IDs.
func (s *Server) handleLookupLeads(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	var req LookupRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be {\"ids\": [...]}")
		return
	}
	if len(req.IDs) > MaxLookupIDs {
		writeError(w, http.StatusBadRequest, "too_many_ids", "At most 500 IDs per request")
		return
	}

	leads, err := s.engine.GetLeadsByIDs(r.Context(), req.IDs)
	if err != nil {
		s.logger.Error("failed to look up leads", "count", len(req.IDs), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to look up leads")
		return
	}
	writeJSON(w, http.StatusOK, LeadsResponse{Data: toLeads(leads)})
}

// handleListTeam returns the team members leads can be assigned to.
func (s *Server) handleListTeam(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	team, err := s.engine.ListTeamMembers(r.Context())
	if err != nil {
		s.logger.Error("failed to list team", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list team")
		return
	}
	out := make([]TeamMember, len(team))
	for i, m := range team {
		out[i] = TeamMember{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	writeJSON(w, http.StatusOK, TeamResponse{Data: out})
}

// handleStats returns lead counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w) {
		return
	}

	stats, err := s.engine.GetStats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve statistics")
		return
	}

	resp := StatsResponse{
		Total:      stats.Total,
		ByStatus:   make(map[string]int64, len(query.AllStatuses)),
		Unassigned: stats.Unassigned,
		ValueCents: stats.ValueCents,
	}
	for _, st := range query.AllStatuses {
		resp.ByStatus[string(st)] = stats.ByStatus[st]
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExportStatus returns the status of scheduled exports.
func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	resp := ExportStatusResponse{Exports: []ScheduledExportInfo{}}
	if s.scheduler != nil {
		resp.Running = s.scheduler.IsRunning()
		for _, st := range s.scheduler.Status() {
			resp.Exports = append(resp.Exports, ScheduledExportInfo{
				Name:     st.Name,
				View:     st.View,
				Schedule: st.Schedule,
				Running:  st.Running,
				LastRun:  formatTime(st.LastRun),
				NextRun:  formatTime(st.NextRun),
				LastFile: st.LastFile,
				LastErr:  st.LastError,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTriggerExport runs a scheduled export now.
func (s *Server) handleTriggerExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if s.scheduler == nil || !s.scheduler.IsScheduled(name) {
		writeError(w, http.StatusNotFound, "not_found", "No scheduled export named "+name)
		return
	}

	if err := s.scheduler.TriggerExport(name); err != nil {
		s.logger.Warn("failed to trigger export", "name", name, "error", err)
		writeError(w, http.StatusConflict, "export_unavailable", "Export could not be started")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "Export started for " + name,
	})
}
