// Package dbtest provides shared database test helpers for seeding and querying
// test databases. It is designed to be importable from any test package without
// circular dependency issues (it does not import internal/query).
package dbtest

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout matches the store's timestamp text format.
const timeLayout = "2006-01-02T15:04:05Z"

// TestDB wraps a *sql.DB with auto-increment counters and builder helpers
// for seeding test data.
type TestDB struct {
	DB *sql.DB
	T  testing.TB

	nextLeadID int64
}

// NewTestDB creates an in-memory SQLite database with the production schema loaded.
// schemaPath is the path to schema.sql (e.g. "../store/schema.sql" from the caller's package).
func NewTestDB(t testing.TB, schemaPath string) *TestDB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema.sql: %v", err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return &TestDB{DB: db, T: t, nextLeadID: 1}
}

// SeedStandardDataSet inserts the standard test data set: 2 team members
// (alice, bob), 1 campaign (Spring Promo) and 6 leads, one per status.
//
//	id  name           status       owner  created
//	1   Ann Archer     new          -      2024-01-10
//	2   Ben Baker      claimed      alice  2024-01-15
//	3   Cara Cole      contacted    alice  2024-02-01
//	4   Dan Drake      closed       bob    2024-02-15
//	5   Eve Evans      lost         bob    2024-03-01
//	6   Finn Ford      unreachable  -      2024-03-20
func (tdb *TestDB) SeedStandardDataSet() {
	tdb.T.Helper()

	tdb.AddTeamMember("alice", "Alice Smith")
	tdb.AddTeamMember("bob", "Bob Jones")
	campaign := tdb.AddCampaign("Spring Promo")

	tdb.AddLead(LeadOpts{Name: "Ann Archer", Email: "ann@acme.com", Company: "Acme", Source: "web", Status: "new", ValueCents: 100_00, CreatedAt: "2024-01-10T09:00:00Z"})
	tdb.AddLead(LeadOpts{Name: "Ben Baker", Email: "ben@globex.com", Phone: "555-0101", Company: "Globex", Source: "referral", Status: "claimed", OwnerID: "alice", ValueCents: 2_500_00, CreatedAt: "2024-01-15T10:00:00Z"})
	tdb.AddLead(LeadOpts{Name: "Cara Cole", Email: "cara@acme.com", Company: "Acme", Source: "webinar", Status: "contacted", OwnerID: "alice", CampaignID: campaign, ValueCents: 7_000_00, CreatedAt: "2024-02-01T11:00:00Z"})
	tdb.AddLead(LeadOpts{Name: "Dan Drake", Email: "dan@initech.com", Phone: "555-0102", Company: "Initech", Source: "web", Status: "closed", OwnerID: "bob", CampaignID: campaign, ValueCents: 12_000_00, CreatedAt: "2024-02-15T12:00:00Z"})
	tdb.AddLead(LeadOpts{Name: "Eve Evans", Company: "Umbrella", Source: "event", Status: "lost", OwnerID: "bob", ValueCents: 500_00, CreatedAt: "2024-03-01T13:00:00Z"})
	tdb.AddLead(LeadOpts{Name: "Finn Ford", Email: "finn@hooli.com", Company: "Hooli", Source: "web", Status: "unreachable", CreatedAt: "2024-03-20T14:00:00Z"})
}

// AddTeamMember inserts a team member.
func (tdb *TestDB) AddTeamMember(id, name string) {
	tdb.T.Helper()
	email := id + "@leaddesk.test"
	if _, err := tdb.DB.Exec(`INSERT INTO team_members (id, name, email) VALUES (?, ?, ?)`, id, name, email); err != nil {
		tdb.T.Fatalf("AddTeamMember: %v", err)
	}
}

// AddCampaign inserts a campaign and returns its ID.
func (tdb *TestDB) AddCampaign(name string) int64 {
	tdb.T.Helper()
	res, err := tdb.DB.Exec(`INSERT INTO campaigns (name, created_at) VALUES (?, '2024-01-01T00:00:00Z')`, name)
	if err != nil {
		tdb.T.Fatalf("AddCampaign: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// LeadOpts configures a lead to insert.
type LeadOpts struct {
	Name       string
	Email      string
	Phone      string
	Company    string
	Source     string
	Status     string // defaults to "new"
	OwnerID    string // empty = unassigned
	CampaignID int64  // 0 = none
	ValueCents int64
	CreatedAt  string // e.g. "2024-05-01T10:00:00Z"; defaults to one hour per lead after 2024-05-01
}

// AddLead inserts a lead and returns its ID.
func (tdb *TestDB) AddLead(opts LeadOpts) int64 {
	tdb.T.Helper()
	id := tdb.nextLeadID
	tdb.nextLeadID++

	if opts.Status == "" {
		opts.Status = "new"
	}
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("Lead %d", id)
	}
	created := opts.CreatedAt
	if created == "" {
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		created = base.Add(time.Duration(id) * time.Hour).Format(timeLayout)
	}

	var owner, campaign interface{}
	if opts.OwnerID != "" {
		owner = opts.OwnerID
	}
	if opts.CampaignID != 0 {
		campaign = opts.CampaignID
	}

	_, err := tdb.DB.Exec(
		`INSERT INTO leads (id, name, email, phone, company, source, status, owner_id, campaign_id, value_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, opts.Name, opts.Email, opts.Phone, opts.Company, opts.Source, opts.Status,
		owner, campaign, opts.ValueCents, created, created,
	)
	if err != nil {
		tdb.T.Fatalf("AddLead: %v", err)
	}
	return id
}

// AddLeads inserts n leads with default fields and returns their IDs.
func (tdb *TestDB) AddLeads(n int, opts LeadOpts) []int64 {
	tdb.T.Helper()
	ids := make([]int64, n)
	for i := range ids {
		o := opts
		o.Name = ""
		ids[i] = tdb.AddLead(o)
	}
	return ids
}

// LastLeadID returns the ID of the most recently added lead.
func (tdb *TestDB) LastLeadID() int64 {
	return tdb.nextLeadID - 1
}

// CountLeads returns the number of leads, failing the test on error.
func (tdb *TestDB) CountLeads() int64 {
	tdb.T.Helper()
	var n int64
	if err := tdb.DB.QueryRow(`SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		tdb.T.Fatalf("CountLeads: %v", err)
	}
	return n
}
