package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Wire parameter names used by the HTTP API.
const (
	ParamPage     = "page"
	ParamLimit    = "limit"
	ParamSearch   = "search"
	ParamStatus   = "status"
	ParamOwner    = "owner"
	ParamSortBy   = "sortBy"
	ParamSortDir  = "sortDir"
	ParamDateFrom = "dateFrom"
	ParamDateTo   = "dateTo"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 500

// Values encodes p as API query parameters. Unset dimensions are omitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set(ParamPage, strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set(ParamLimit, strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set(ParamSearch, p.Search)
	}
	if len(p.Statuses) > 0 {
		parts := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			parts[i] = string(s)
		}
		v.Set(ParamStatus, strings.Join(parts, ","))
	}
	if len(p.Owners) > 0 {
		v.Set(ParamOwner, strings.Join(p.Owners, ","))
	}
	if p.SortBy != "" {
		v.Set(ParamSortBy, p.SortBy)
		v.Set(ParamSortDir, p.SortDir.String())
	}
	if p.DateFrom != nil {
		v.Set(ParamDateFrom, p.DateFrom.Format(time.RFC3339))
	}
	if p.DateTo != nil {
		v.Set(ParamDateTo, p.DateTo.Format(time.RFC3339))
	}
	return v
}

// ParseValues decodes API query parameters. Malformed values fall back to
// defaults: page 1, DefaultLimit, no filter. Unknown statuses and invalid
// owner IDs are dropped; the limit is capped at MaxLimit.
func ParseValues(v url.Values) ListParams {
	p := ListParams{
		Page:    1,
		Limit:   DefaultLimit,
		Search:  strings.TrimSpace(v.Get(ParamSearch)),
		SortBy:  v.Get(ParamSortBy),
		SortDir: ParseSortDirection(v.Get(ParamSortDir)),
	}
	if n, err := strconv.Atoi(v.Get(ParamPage)); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(v.Get(ParamLimit)); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	if !IsSortable(p.SortBy) {
		p.SortBy = ""
		p.SortDir = SortDesc
	}
	for _, tok := range splitList(v.Get(ParamStatus)) {
		if st, ok := ParseStatus(tok); ok {
			p.Statuses = append(p.Statuses, st)
		}
	}
	for _, tok := range splitList(v.Get(ParamOwner)) {
		if tok == UnassignedOwner || ValidOwnerID(tok) {
			p.Owners = append(p.Owners, tok)
		}
	}
	p.DateFrom = parseDay(v.Get(ParamDateFrom))
	p.DateTo = parseDay(v.Get(ParamDateTo))
	return p
}

func splitList(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// parseDay accepts an RFC 3339 midnight, which carries the client's zone,
// or a bare date, which is taken as UTC.
func parseDay(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
