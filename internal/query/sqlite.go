package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wesm/leaddesk/internal/search"
)

// storedTimeLayout is the text format the store writes timestamps in.
const storedTimeLayout = "2006-01-02T15:04:05Z"

// DefaultLimit is the page size used when a request leaves Limit unset.
const DefaultLimit = 20

// lookupChunkSize bounds the number of IDs bound into one IN (...) clause.
const lookupChunkSize = 500

// SQLiteEngine implements Engine using direct SQLite queries.
type SQLiteEngine struct {
	db *sql.DB
}

// NewSQLiteEngine creates a new SQLite-backed query engine.
func NewSQLiteEngine(db *sql.DB) *SQLiteEngine {
	return &SQLiteEngine{db: db}
}

// Close is a no-op for SQLiteEngine since it doesn't own the connection.
func (e *SQLiteEngine) Close() error {
	return nil
}

const leadColumns = `
	l.id,
	l.name,
	l.email,
	l.phone,
	l.company,
	l.source,
	l.status,
	COALESCE(l.owner_id, ''),
	COALESCE(tm.name, ''),
	l.campaign_id,
	COALESCE(c.name, ''),
	l.value_cents,
	l.created_at,
	l.updated_at`

const leadJoins = `
	LEFT JOIN team_members tm ON tm.id = l.owner_id
	LEFT JOIN campaigns c ON c.id = l.campaign_id`

// orderByColumn maps a sortable column to its SQL expression. Only columns
// in this map reach the ORDER BY clause.
var orderByColumn = map[string]string{
	ColumnCreatedAt: "l.created_at",
	ColumnUpdatedAt: "l.updated_at",
	ColumnName:      "l.name COLLATE NOCASE",
	ColumnCompany:   "l.company COLLATE NOCASE",
	ColumnStatus:    "l.status",
	ColumnValue:     "l.value_cents",
}

func orderClause(params ListParams) string {
	expr, ok := orderByColumn[params.SortBy]
	if !ok {
		expr = orderByColumn[ColumnCreatedAt]
	}
	dir := " DESC"
	if params.SortDir == SortAsc {
		dir = " ASC"
	}
	// id breaks ties so paging never repeats or skips rows.
	return expr + dir + ", l.id" + dir
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// buildLeadConditions converts params into WHERE conditions and arguments.
// Unset dimensions contribute nothing.
func buildLeadConditions(params ListParams) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q := search.Parse(params.Search); !q.IsEmpty() {
		c, a := searchConditions(q)
		conditions = append(conditions, c...)
		args = append(args, a...)
	}

	if len(params.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.status IN (%s)", inPlaceholders(len(params.Statuses))))
		for _, s := range params.Statuses {
			args = append(args, string(s))
		}
	}

	if len(params.Owners) > 0 {
		var ownerConds []string
		var ids []interface{}
		for _, o := range params.Owners {
			if o == UnassignedOwner {
				ownerConds = append(ownerConds, "l.owner_id IS NULL")
				continue
			}
			ids = append(ids, o)
		}
		if len(ids) > 0 {
			ownerConds = append(ownerConds, fmt.Sprintf("l.owner_id IN (%s)", inPlaceholders(len(ids))))
			args = append(args, ids...)
		}
		conditions = append(conditions, "("+strings.Join(ownerConds, " OR ")+")")
	}

	// Bounds are midnights in the caller's zone; to is inclusive, so the
	// range ends at the following midnight. created_at is stored in UTC.
	if params.DateFrom != nil {
		conditions = append(conditions, "l.created_at >= ?")
		args = append(args, params.DateFrom.UTC().Format(storedTimeLayout))
	}
	if params.DateTo != nil {
		conditions = append(conditions, "l.created_at < ?")
		args = append(args, params.DateTo.AddDate(0, 0, 1).UTC().Format(storedTimeLayout))
	}

	return conditions, args
}

// searchConditions turns a parsed search query into LIKE conditions. Terms
// within one field are ANDed, matching how the parser accumulates them.
func searchConditions(q *search.Query) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	for _, term := range q.TextTerms {
		p := escapeLike(term)
		conditions = append(conditions, `(l.name LIKE ? ESCAPE '\' OR l.email LIKE ? ESCAPE '\' OR l.company LIKE ? ESCAPE '\' OR l.phone LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p, p)
	}

	fields := []struct {
		expr  string
		terms []string
	}{
		{"l.name", q.NameTerms},
		{"l.email", q.EmailTerms},
		{"l.company", q.CompanyTerms},
		{"l.phone", q.PhoneTerms},
		{"COALESCE(c.name, '')", q.CampaignTerms},
	}
	for _, f := range fields {
		for _, term := range f.terms {
			conditions = append(conditions, f.expr+` LIKE ? ESCAPE '\'`)
			args = append(args, escapeLike(term))
		}
	}

	if len(q.Sources) > 0 {
		conditions = append(conditions, fmt.Sprintf("LOWER(l.source) IN (%s)", inPlaceholders(len(q.Sources))))
		for _, s := range q.Sources {
			args = append(args, s)
		}
	}
	if q.HasEmail != nil && *q.HasEmail {
		conditions = append(conditions, "l.email != ''")
	}
	if q.HasPhone != nil && *q.HasPhone {
		conditions = append(conditions, "l.phone != ''")
	}
	if q.MinValueCents != nil {
		conditions = append(conditions, "l.value_cents >= ?")
		args = append(args, *q.MinValueCents)
	}
	if q.MaxValueCents != nil {
		conditions = append(conditions, "l.value_cents <= ?")
		args = append(args, *q.MaxValueCents)
	}

	return conditions, args
}

// ListLeads returns one page of leads matching params.
func (e *SQLiteEngine) ListLeads(ctx context.Context, params ListParams) (*LeadPage, error) {
	if params.Limit < 1 {
		params.Limit = DefaultLimit
	}
	if params.Page < 1 {
		params.Page = 1
	}

	conditions, args := buildLeadConditions(params)
	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM leads l %s WHERE %s`, leadJoins, whereClause)
	if err := e.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM leads l
		%s
		WHERE %s
		ORDER BY %s
		LIMIT ? OFFSET ?
	`, leadColumns, leadJoins, whereClause, orderClause(params))

	pageArgs := append(args[:len(args):len(args)], params.Limit, params.Offset())
	leads, err := e.queryLeads(ctx, query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	return &LeadPage{
		Data:       leads,
		Pagination: NewPagination(params.Page, params.Limit, total),
	}, nil
}

// GetLeadsByIDs returns the leads with the given IDs ordered by ID.
func (e *SQLiteEngine) GetLeadsByIDs(ctx context.Context, ids []int64) ([]Lead, error) {
	var results []Lead
	for start := 0; start < len(ids); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(ids))
		chunk := ids[start:end]
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := fmt.Sprintf(`
			SELECT %s
			FROM leads l
			%s
			WHERE l.id IN (%s)
		`, leadColumns, leadJoins, inPlaceholders(len(chunk)))
		leads, err := e.queryLeads(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("get leads by ids: %w", err)
		}
		results = append(results, leads...)
	}
	sortLeadsByID(results)
	return results, nil
}

func (e *SQLiteEngine) queryLeads(ctx context.Context, query string, args ...interface{}) ([]Lead, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Lead{}
	for rows.Next() {
		var l Lead
		var status, createdAt, updatedAt string
		var campaignID sql.NullInt64
		if err := rows.Scan(
			&l.ID,
			&l.Name,
			&l.Email,
			&l.Phone,
			&l.Company,
			&l.Source,
			&status,
			&l.OwnerID,
			&l.OwnerName,
			&campaignID,
			&l.CampaignName,
			&l.ValueCents,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		l.Status = LeadStatus(status)
		if campaignID.Valid {
			id := campaignID.Int64
			l.CampaignID = &id
		}
		l.CreatedAt = parseStoredTime(createdAt)
		l.UpdatedAt = parseStoredTime(updatedAt)
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return results, nil
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(storedTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ListTeamMembers returns all team members ordered by name.
func (e *SQLiteEngine) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT id, name, email FROM team_members ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return members, nil
}

// GetStats returns lead counts per status plus totals.
func (e *SQLiteEngine) GetStats(ctx context.Context) (*LeadStats, error) {
	stats := &LeadStats{ByStatus: make(map[LeadStatus]int64, len(AllStatuses))}
	for _, s := range AllStatuses {
		stats.ByStatus[s] = 0
	}

	rows, err := e.db.QueryContext(ctx, `SELECT status, COUNT(*), COALESCE(SUM(value_cents), 0) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("lead stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count, value int64
		if err := rows.Scan(&status, &count, &value); err != nil {
			return nil, fmt.Errorf("scan lead stats: %w", err)
		}
		stats.ByStatus[LeadStatus(status)] = count
		stats.Total += count
		stats.ValueCents += value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead stats: %w", err)
	}

	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE owner_id IS NULL`).Scan(&stats.Unassigned); err != nil {
		return nil, fmt.Errorf("count unassigned leads: %w", err)
	}
	return stats, nil
}
