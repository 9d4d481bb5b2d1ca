package store_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wesm/leaddesk/internal/store"
	"github.com/wesm/leaddesk/internal/testutil"
)

func TestStore_Open(t *testing.T) {
	st := testutil.NewTestStore(t)

	stats, err := st.GetStats()
	testutil.MustNoErr(t, err, "GetStats()")
	if stats.LeadCount != 0 {
		t.Errorf("LeadCount = %d, want 0", stats.LeadCount)
	}
}

func TestStore_OpenRejectsPostgres(t *testing.T) {
	_, err := store.Open("postgres://localhost/leads")
	if err == nil || !strings.Contains(err.Error(), "PostgreSQL") {
		t.Fatalf("Open(postgres) error = %v, want PostgreSQL rejection", err)
	}
}

func TestStore_InsertLead(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.MustNoErr(t, st.UpsertTeamMember("alice", "Alice", "alice@example.com"), "UpsertTeamMember")

	id, err := st.InsertLead(store.LeadInput{Name: "Ann", Company: "Acme", OwnerID: "alice", ValueCents: 1000})
	testutil.MustNoErr(t, err, "InsertLead")
	if id <= 0 {
		t.Errorf("InsertLead id = %d, want > 0", id)
	}

	var status, owner string
	err = st.DB().QueryRow("SELECT status, owner_id FROM leads WHERE id = ?", id).Scan(&status, &owner)
	testutil.MustNoErr(t, err, "select lead")
	if status != "new" {
		t.Errorf("status = %q, want new", status)
	}
	if owner != "alice" {
		t.Errorf("owner_id = %q, want alice", owner)
	}
}

func TestStore_InsertLeadRejectsUnknownStatus(t *testing.T) {
	st := testutil.NewTestStore(t)
	if _, err := st.InsertLead(store.LeadInput{Name: "X", Status: "won"}); err == nil {
		t.Fatal("expected CHECK constraint error for unknown status")
	}
}

func TestStore_InsertLeadsChunks(t *testing.T) {
	st := testutil.NewTestStore(t)

	// More rows than fit in one multi-value INSERT.
	leads := make([]store.LeadInput, 250)
	for i := range leads {
		leads[i] = store.LeadInput{Name: "Bulk", Source: "import"}
	}
	testutil.MustNoErr(t, st.InsertLeads(leads), "InsertLeads")

	stats, err := st.GetStats()
	testutil.MustNoErr(t, err, "GetStats")
	if stats.LeadCount != 250 {
		t.Errorf("LeadCount = %d, want 250", stats.LeadCount)
	}
}

func TestStore_AssignAndUpdateStatus(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.MustNoErr(t, st.UpsertTeamMember("bob", "Bob", ""), "UpsertTeamMember")
	id, err := st.InsertLead(store.LeadInput{Name: "Lead"})
	testutil.MustNoErr(t, err, "InsertLead")

	testutil.MustNoErr(t, st.AssignLead(id, "bob"), "AssignLead")
	testutil.MustNoErr(t, st.UpdateLeadStatus(id, "claimed"), "UpdateLeadStatus")

	var owner sql.NullString
	var status string
	err = st.DB().QueryRow("SELECT owner_id, status FROM leads WHERE id = ?", id).Scan(&owner, &status)
	testutil.MustNoErr(t, err, "select")
	if owner.String != "bob" || status != "claimed" {
		t.Errorf("got owner=%q status=%q, want bob/claimed", owner.String, status)
	}

	testutil.MustNoErr(t, st.AssignLead(id, ""), "unassign")
	err = st.DB().QueryRow("SELECT owner_id FROM leads WHERE id = ?", id).Scan(&owner)
	testutil.MustNoErr(t, err, "select")
	if owner.Valid {
		t.Errorf("owner_id = %q after unassign, want NULL", owner.String)
	}

	if err := st.AssignLead(9999, "bob"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("AssignLead(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestStore_UpsertTeamMemberRejectsReservedIDs(t *testing.T) {
	st := testutil.NewTestStore(t)
	for _, id := range []string{"", "__unassigned__", "a,b", "has space"} {
		if err := st.UpsertTeamMember(id, "X", ""); err == nil {
			t.Errorf("UpsertTeamMember(%q) succeeded, want error", id)
		}
	}
}

func TestStore_EnsureCampaignIsIdempotent(t *testing.T) {
	st := testutil.NewTestStore(t)
	first, err := st.EnsureCampaign("Spring Promo")
	testutil.MustNoErr(t, err, "EnsureCampaign")
	second, err := st.EnsureCampaign("Spring Promo")
	testutil.MustNoErr(t, err, "EnsureCampaign again")
	if first != second {
		t.Errorf("EnsureCampaign ids differ: %d vs %d", first, second)
	}
}

func TestStore_SeedIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	names := func() []string {
		st := testutil.NewTestStore(t)
		res, err := st.Seed(store.SeedOptions{Leads: 40, Seed: 7, Now: now})
		testutil.MustNoErr(t, err, "Seed")
		if res.Leads != 40 || res.TeamMembers == 0 || res.Campaigns == 0 {
			t.Fatalf("unexpected seed result %+v", res)
		}
		rows, err := st.DB().Query("SELECT name || '|' || status || '|' || created_at FROM leads ORDER BY id")
		testutil.MustNoErr(t, err, "query")
		defer rows.Close()
		var out []string
		for rows.Next() {
			var s string
			testutil.MustNoErr(t, rows.Scan(&s), "scan")
			out = append(out, s)
		}
		return out
	}

	a, b := names(), names()
	testutil.AssertDiff(t, "seeded leads", b, a)
}

func TestStore_SeedReset(t *testing.T) {
	st := testutil.NewSeededStore(t, 20, 1)
	_, err := st.Seed(store.SeedOptions{Leads: 5, Seed: 2, Reset: true})
	testutil.MustNoErr(t, err, "Seed reset")

	stats, err := st.GetStats()
	testutil.MustNoErr(t, err, "GetStats")
	if stats.LeadCount != 5 {
		t.Errorf("LeadCount = %d, want 5", stats.LeadCount)
	}
}

func TestFormatParseTime(t *testing.T) {
	in := time.Date(2024, 3, 9, 8, 7, 6, 0, time.FixedZone("X", 3600))
	got := store.ParseTime(store.FormatTime(in))
	if !got.Equal(in) {
		t.Errorf("round trip = %v, want %v", got, in)
	}
	if !store.ParseTime("garbage").IsZero() {
		t.Error("ParseTime(garbage) should be zero")
	}
}
