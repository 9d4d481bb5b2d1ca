package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/query/querytest"
	"github.com/wesm/leaddesk/internal/selection"
)

func TestCursorMovement(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(5)...).Build(t)

	m = press(t, m, key('j'))
	m = press(t, m, keyDown())
	assertCursor(t, m, 2)

	m = press(t, m, key('G'))
	assertCursor(t, m, 4)

	m = press(t, m, key('j'))
	assertCursor(t, m, 4)

	m = press(t, m, key('g'))
	assertCursor(t, m, 0)

	m = press(t, m, key('k'))
	assertCursor(t, m, 0)
}

func TestScrollOffsetFollowsCursor(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(20)...).WithSize(120, 10).Build(t)
	visible := m.pageSize()

	m = press(t, m, key('G'))
	if want := 19 - visible + 1; m.scrollOffset != want {
		t.Errorf("scrollOffset = %d, want %d", m.scrollOffset, want)
	}
	m = press(t, m, key('g'))
	if m.scrollOffset != 0 {
		t.Errorf("scrollOffset = %d after g, want 0", m.scrollOffset)
	}
}

func TestCalculateScrollOffset(t *testing.T) {
	tests := []struct {
		name                     string
		cursor, offset, pageSize int
		want                     int
	}{
		{"visible", 3, 0, 10, 0},
		{"above", 2, 5, 10, 2},
		{"below", 12, 0, 10, 3},
		{"last visible", 9, 0, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateScrollOffset(tt.cursor, tt.offset, tt.pageSize); got != tt.want {
				t.Errorf("calculateScrollOffset(%d, %d, %d) = %d, want %d",
					tt.cursor, tt.offset, tt.pageSize, got, tt.want)
			}
		})
	}
}

func TestSelectionToggleAndSelectAll(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)

	m = press(t, m, keySpace())
	assertSelectionCount(t, m, 1)
	if st := m.selected.State(m.list.VisibleIDs()); st != selection.TriSome {
		t.Errorf("header state = %v, want some", st)
	}

	m = press(t, m, key('a'))
	assertSelectionCount(t, m, 3)
	if st := m.selected.State(m.list.VisibleIDs()); st != selection.TriAll {
		t.Errorf("header state = %v, want all", st)
	}

	m = press(t, m, keySpace())
	assertSelectionCount(t, m, 2)

	m = press(t, m, key('x'))
	assertSelectionCount(t, m, 0)
}

func TestSelectionSurvivesPaging(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(45)...).Build(t)

	m = press(t, m, keySpace())
	m = press(t, m, key('n'))
	assertPage(t, m, 2, listview.DefaultLimit)

	if ids := m.list.VisibleIDs(); len(ids) != 20 || ids[0] != 21 {
		t.Fatalf("page 2 ids = %v", ids)
	}
	if !m.selected.IsSelected(1) {
		t.Error("lead 1 should stay selected on page 2")
	}
	if st := m.selected.State(m.list.VisibleIDs()); st != selection.TriNone {
		t.Errorf("header state on page 2 = %v, want none", st)
	}

	m = press(t, m, key('a'))
	assertSelectionCount(t, m, 21)
}

func TestPagingBounds(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(25)...).Build(t)

	m = press(t, m, key('p'))
	assertPage(t, m, 1, 20)

	m = press(t, m, key('n'))
	assertPage(t, m, 2, 20)
	if got := len(m.leads()); got != 5 {
		t.Errorf("page 2 has %d leads, want 5", got)
	}

	m = press(t, m, key('n'))
	assertPage(t, m, 2, 20)

	m = press(t, m, key('p'))
	assertPage(t, m, 1, 20)
}

func TestNextLimitResetsPage(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(60)...).WithView("page=3").Build(t)
	assertPage(t, m, 3, 20)

	m = press(t, m, key('L'))
	assertPage(t, m, 1, 25)
	if m.flashMessage != "Page size: 25" {
		t.Errorf("flash = %q", m.flashMessage)
	}
}

func TestCachedPageNeedsNoRequest(t *testing.T) {
	eng := &querytest.MockEngine{Leads: makeLeads(45)}
	m := NewBuilder().WithEngine(eng).Build(t)

	m = press(t, m, key('n'))
	m = press(t, m, key('p'))
	if got := len(eng.ListCalls()); got != 2 {
		t.Errorf("ListLeads calls = %d, want 2 (page 1 served from cache)", got)
	}
	if m.list.Loading() {
		t.Error("cached page should not be loading")
	}
}

func TestSearchTyping(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)

	m = press(t, m, key('/'))
	if !m.searching {
		t.Fatal("expected search bar to be focused")
	}
	m, cmd := sendKey(t, m, key('a'))
	if cmd == nil {
		t.Error("typing should schedule a debounce")
	}
	if got := m.list.Search.Input(); got != "a" {
		t.Errorf("input = %q, want a", got)
	}
	if got := m.list.Params().Search; got != "" {
		t.Errorf("search committed before debounce: %q", got)
	}
}

func TestSearchDebounceOnlyNewestSettles(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(45)...).WithView("page=2").Build(t)

	stale := m.list.Search.Type("ac")
	fresh := m.list.Search.Type("acme")

	m, cmd := sendMsg(t, m, searchDebounceMsg{token: stale})
	if cmd != nil || m.list.Params().Search != "" {
		t.Fatalf("stale token settled: search=%q", m.list.Params().Search)
	}

	m, _ = sendMsg(t, m, searchDebounceMsg{token: fresh})
	p := m.list.Params()
	if p.Search != "acme" {
		t.Errorf("search = %q, want acme", p.Search)
	}
	if p.Page != 1 {
		t.Errorf("page = %d, want 1 after search change", p.Page)
	}
}

func TestSearchEnterAndEsc(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)

	m = press(t, m, key('/'))
	m, _ = sendKey(t, m, key('z'))
	m = press(t, m, keyEnter())
	if m.searching {
		t.Error("enter should leave the search bar")
	}
	if got := m.list.Params().Search; got != "z" {
		t.Errorf("search = %q after enter, want z", got)
	}

	m = press(t, m, key('/'))
	m = press(t, m, keyEsc())
	if got := m.list.Params().Search; got != "" {
		t.Errorf("search = %q after esc, want empty", got)
	}
	if m.searchInput.Value() != "" {
		t.Errorf("input = %q after esc", m.searchInput.Value())
	}
}

func TestStatusFilterModal(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(45)...).WithView("page=2").Build(t)

	m = press(t, m, key('s'))
	assertModal(t, m, modalStatusFilter)
	if got := len(m.modalOptions()); got != len(query.AllStatuses) {
		t.Fatalf("status options = %d", got)
	}

	m = press(t, m, keySpace())
	m = press(t, m, key('j'))
	m = press(t, m, key('j'))
	m = press(t, m, keySpace())

	p := m.list.Params()
	if diff := cmp.Diff([]query.LeadStatus{query.StatusContacted, query.StatusNew}, p.Statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	if p.Page != 1 {
		t.Errorf("page = %d, want 1 after filter change", p.Page)
	}

	m = press(t, m, keyEnter())
	assertModal(t, m, modalNone)
}

func TestOwnerFilterUsesTeam(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)
	m, _ = sendMsg(t, m, teamLoadedMsg{team: standardTeam()})

	m = press(t, m, key('o'))
	assertModal(t, m, modalOwnerFilter)

	var labels []string
	for _, opt := range m.modalOptions() {
		labels = append(labels, opt.label)
	}
	if diff := cmp.Diff([]string{"Unassigned", "Alice Smith", "Bob Jones"}, labels); diff != "" {
		t.Errorf("owner options mismatch (-want +got):\n%s", diff)
	}

	m = press(t, m, keySpace())
	m = press(t, m, key('j'))
	m = press(t, m, keySpace())
	if diff := cmp.Diff([]string{query.UnassignedOwner, "alice"}, m.list.Params().Owners); diff != "" {
		t.Errorf("owners mismatch (-want +got):\n%s", diff)
	}
}

func TestTeamLoadDropsUnknownOwner(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).WithView("owner=zed").Build(t)
	if diff := cmp.Diff([]string{"zed"}, m.list.Params().Owners); diff != "" {
		t.Fatalf("deep-linked owner should pass before the team loads:\n%s", diff)
	}

	m, cmd := sendMsg(t, m, teamLoadedMsg{team: standardTeam()})
	if m.list.Params().Owners != nil {
		t.Errorf("owners = %v, want none after team load", m.list.Params().Owners)
	}
	if cmd == nil {
		t.Error("narrowed params should trigger a refetch")
	}
}

func TestDateFilterModal(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)

	m = press(t, m, key('d'))
	assertModal(t, m, modalDateFilter)
	assertCursorModal(t, m, 0)

	m = press(t, m, key('j'))
	m = press(t, m, keyEnter())
	assertModal(t, m, modalNone)

	if got := m.list.Dates.Selection().Preset; got != listview.Presets[0] {
		t.Errorf("preset = %q, want %q", got, listview.Presets[0])
	}
	p := m.list.Params()
	if p.DateFrom == nil || p.DateTo == nil {
		t.Fatalf("date range not applied: %+v", p)
	}
	if got := p.DateFrom.Format(query.DateLayout); got != "2024-03-15" {
		t.Errorf("dateFrom = %s, want 2024-03-15", got)
	}
}

func assertCursorModal(t *testing.T, m Model, expected int) {
	t.Helper()
	if m.modalCursor != expected {
		t.Errorf("expected modal cursor %d, got %d", expected, m.modalCursor)
	}
}

func TestClearFilters(t *testing.T) {
	m := NewBuilder().
		WithLeads(makeLeads(45)...).
		WithView("status=new&search=foo&range=last-7-days&page=2").
		Build(t)
	m.selected.Select(1, 2)

	m = press(t, m, key('c'))
	p := m.list.Params()
	if p.Search != "" || p.Statuses != nil || p.DateFrom != nil {
		t.Errorf("filters not cleared: %+v", p)
	}
	if p.Page != 1 {
		t.Errorf("page = %d, want 1", p.Page)
	}
	assertSelectionCount(t, m, 2)
}

func TestSortKeys(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)

	m = press(t, m, key('S'))
	st := m.list.Sort.State()
	if st.Column != query.ColumnUpdatedAt || st.Descending {
		t.Errorf("sort = %+v, want updatedAt ascending", st)
	}

	m = press(t, m, key('r'))
	if st := m.list.Sort.State(); st.Column != query.ColumnUpdatedAt || !st.Descending {
		t.Errorf("sort = %+v, want updatedAt descending", st)
	}
	if p := m.list.Params(); p.SortBy != query.ColumnUpdatedAt || p.SortDir != query.SortDesc {
		t.Errorf("params sort = %s %s", p.SortBy, p.SortDir)
	}
}

func TestHistoryBackForward(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).WithView("search=ann").Build(t)

	m.list.Store.Navigate("search=bob&status=lost")
	m = loadPage(t, m)

	m = press(t, m, key('['))
	if got := m.list.Params().Search; got != "ann" {
		t.Errorf("search after back = %q, want ann", got)
	}
	if got := m.searchInput.Value(); got != "ann" {
		t.Errorf("search bar after back = %q, want ann", got)
	}

	m = press(t, m, key(']'))
	p := m.list.Params()
	if p.Search != "bob" || len(p.Statuses) != 1 {
		t.Errorf("params after forward = %+v", p)
	}
}

func TestExportSelectionRunsImmediately(t *testing.T) {
	dir := t.TempDir()
	m := NewBuilder().
		WithLeads(makeLeads(3)...).
		WithExportConfig(export.Config{Dir: dir}).
		Build(t)

	m = press(t, m, keySpace())
	m = press(t, m, key('j'))
	m = press(t, m, keySpace())
	m, cmd := sendKey(t, m, key('e'))
	if cmd == nil {
		t.Error("running export should schedule a progress tick")
	}

	n := waitNotice(t, m)
	if n.Level != export.NoticeSuccess || n.Text != "Exported 2 leads to CSV" {
		t.Errorf("notice = %+v", n)
	}
	job, err := m.exporter.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(job.Path); err != nil {
		t.Errorf("export file: %v", err)
	}

	m, _ = sendMsg(t, m, noticeMsg{notice: n})
	if m.flashMessage != n.Text {
		t.Errorf("flash = %q", m.flashMessage)
	}
	if st := m.exporter.Job().State; st != export.Idle {
		t.Errorf("state after notice = %v, want idle", st)
	}
}

func TestExportConfirmFlow(t *testing.T) {
	m := NewBuilder().
		WithLeads(makeLeads(3)...).
		WithExportConfig(export.Config{SelectionThreshold: 1}).
		Build(t)

	m = press(t, m, key('a'))
	m = press(t, m, key('e'))
	assertModal(t, m, modalExportConfirm)
	if view := stripANSI(m.View()); !strings.Contains(view, "Export 3 selected leads to CSV?") {
		t.Errorf("confirm prompt missing from view:\n%s", view)
	}

	m = press(t, m, key('n'))
	assertModal(t, m, modalNone)
	if st := m.exporter.Job().State; st != export.Idle {
		t.Errorf("state after cancel = %v, want idle", st)
	}

	m = press(t, m, key('e'))
	assertModal(t, m, modalExportConfirm)
	m = press(t, m, key('y'))
	assertModal(t, m, modalNone)

	if n := waitNotice(t, m); n.Level != export.NoticeSuccess {
		t.Errorf("notice = %+v", n)
	}
}

func TestExportNothingSelected(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(3)...).Build(t)

	m = press(t, m, key('e'))
	assertModal(t, m, modalNone)
	if n := waitNotice(t, m); n.Text != "Nothing to export" {
		t.Errorf("notice = %+v", n)
	}
}

func TestExportFilteredTooMany(t *testing.T) {
	m := NewBuilder().
		WithLeads(makeLeads(25)...).
		WithExportConfig(export.Config{MaxRecords: 10}).
		Build(t)

	m = press(t, m, key('E'))
	assertModal(t, m, modalNone)
	n := waitNotice(t, m)
	if n.Level != export.NoticeError {
		t.Errorf("notice = %+v, want error", n)
	}
	if st := m.exporter.Job().State; st != export.Failed {
		t.Errorf("state = %v, want failed", st)
	}
}

func TestExportBusy(t *testing.T) {
	release := make(chan struct{})
	eng := &querytest.MockEngine{Leads: makeLeads(3)}
	eng.GetLeadsByIDsFunc = func(ctx context.Context, ids []int64) ([]query.Lead, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return eng.Leads[:len(ids)], nil
	}
	m := NewBuilder().WithEngine(eng).Build(t)

	m = press(t, m, keySpace())
	m = press(t, m, key('e'))
	if st := m.exporter.Job().State; st != export.Running {
		t.Fatalf("state = %v, want running", st)
	}

	m = press(t, m, key('e'))
	if m.flashMessage != "An export is already running" {
		t.Errorf("flash = %q", m.flashMessage)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.exporter.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestToggleFormat(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(1)...).Build(t)

	m = press(t, m, key('f'))
	if m.format != export.FormatExcel {
		t.Errorf("format = %s, want excel", m.format)
	}
	if m.flashMessage != "Export format: Excel" {
		t.Errorf("flash = %q", m.flashMessage)
	}
	m = press(t, m, key('f'))
	if m.format != export.FormatCSV {
		t.Errorf("format = %s, want csv", m.format)
	}
}

func TestStaleResponseIgnored(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(45)...).Build(t)
	first := m.list.Page()

	old, _ := m.list.Begin()
	m.list.Status.Toggle(string(query.StatusLost))
	m.list.Begin()

	m, _ = sendMsg(t, m, pageLoadedMsg{req: old, page: &query.LeadPage{}})
	if m.list.Page() != first {
		t.Error("superseded response replaced the current page")
	}
}

func TestRetryAfterError(t *testing.T) {
	fail := true
	eng := &querytest.MockEngine{Leads: makeLeads(2)}
	eng.ListLeadsFunc = func(_ context.Context, p query.ListParams) (*query.LeadPage, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return &query.LeadPage{
			Data:       eng.Leads,
			Pagination: query.NewPagination(p.Page, p.Limit, int64(len(eng.Leads))),
		}, nil
	}
	m := NewBuilder().WithEngine(eng).Build(t)
	if m.list.Err() == nil {
		t.Fatal("expected load error")
	}

	fail = false
	m = press(t, m, key('R'))
	if m.list.Err() != nil {
		t.Errorf("error after retry: %v", m.list.Err())
	}
	if got := len(m.leads()); got != 2 {
		t.Errorf("leads after retry = %d", got)
	}
}

func TestQuit(t *testing.T) {
	m := NewBuilder().WithLeads(makeLeads(1)...).Build(t)
	m, cmd := sendKey(t, m, key('q'))
	if !m.quitting || cmd == nil {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}
}
