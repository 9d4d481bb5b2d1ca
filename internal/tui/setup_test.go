package tui

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/query/querytest"
	"github.com/wesm/leaddesk/internal/testutil"
)

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output and restores the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// fixedNow is the clock used by every test model.
func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

// =============================================================================
// Test Fixtures
// =============================================================================

// TestModelBuilder helps construct Model instances for testing.
type TestModelBuilder struct {
	leads  []query.Lead
	team   []query.TeamMember
	view   string
	width  int
	height int
	export export.Config
	engine *querytest.MockEngine
}

// NewBuilder creates a TestModelBuilder with a terminal large enough for a
// full page.
func NewBuilder() *TestModelBuilder {
	return &TestModelBuilder{width: 120, height: 30}
}

func (b *TestModelBuilder) WithLeads(leads ...query.Lead) *TestModelBuilder {
	b.leads = leads
	return b
}

func (b *TestModelBuilder) WithTeam(team ...query.TeamMember) *TestModelBuilder {
	b.team = team
	return b
}

func (b *TestModelBuilder) WithView(view string) *TestModelBuilder {
	b.view = view
	return b
}

func (b *TestModelBuilder) WithSize(width, height int) *TestModelBuilder {
	b.width = width
	b.height = height
	return b
}

func (b *TestModelBuilder) WithExportConfig(cfg export.Config) *TestModelBuilder {
	b.export = cfg
	return b
}

// WithEngine replaces the in-memory engine; WithLeads and WithTeam are ignored.
func (b *TestModelBuilder) WithEngine(eng *querytest.MockEngine) *TestModelBuilder {
	b.engine = eng
	return b
}

// Build creates the model and delivers its first page.
func (b *TestModelBuilder) Build(t *testing.T) Model {
	t.Helper()
	eng := b.engine
	if eng == nil {
		eng = &querytest.MockEngine{Leads: b.leads, Team: b.team}
	}
	cfg := b.export
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	m := New(eng, Options{
		View:   b.view,
		List:   listview.Options{Now: fixedNow, SearchDelay: time.Hour},
		Export: cfg,
	})
	t.Cleanup(m.Close)
	m.width = b.width
	m.height = b.height
	return loadPage(t, m)
}

// =============================================================================
// Helpers
// =============================================================================

// loadPage runs the outstanding list request synchronously and delivers it
// through Update.
func loadPage(t *testing.T, m Model) Model {
	t.Helper()
	req, cached := m.list.Begin()
	if cached != nil {
		return m
	}
	page, err := m.list.Run(context.Background(), req)
	m, _ = sendMsg(t, m, pageLoadedMsg{req: req, page: page, err: err})
	return m
}

func sendKey(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	newModel, cmd := m.Update(k)
	return newModel.(Model), cmd
}

func sendMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

// press sends a key and loads any page it requested.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	m, _ = sendKey(t, m, k)
	if m.list.Loading() {
		m = loadPage(t, m)
	}
	return m
}

func assertModal(t *testing.T, m Model, expected modalType) {
	t.Helper()
	if m.modal != expected {
		t.Errorf("expected modal %d, got %d", expected, m.modal)
	}
}

func assertCursor(t *testing.T, m Model, expected int) {
	t.Helper()
	if m.cursor != expected {
		t.Errorf("expected cursor %d, got %d", expected, m.cursor)
	}
}

func assertPage(t *testing.T, m Model, page, limit int) {
	t.Helper()
	st := m.list.Pagination.State()
	if st.Page != page || st.Limit != limit {
		t.Errorf("expected page %d limit %d, got page %d limit %d", page, limit, st.Page, st.Limit)
	}
}

func assertSelectionCount(t *testing.T, m Model, expected int) {
	t.Helper()
	if got := m.selected.Len(); got != expected {
		t.Errorf("expected %d selected, got %d", expected, got)
	}
}

// waitNotice reads the next export notice.
func waitNotice(t *testing.T, m Model) export.Notice {
	t.Helper()
	select {
	case n := <-m.notices:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for export notice")
		return export.Notice{}
	}
}

func countViewLines(view string) int {
	return len(strings.Split(strings.TrimSuffix(view, "\n"), "\n"))
}

func standardTeam() []query.TeamMember {
	return []query.TeamMember{
		{ID: "alice", Name: "Alice Smith"},
		{ID: "bob", Name: "Bob Jones"},
	}
}

func makeLeads(n int) []query.Lead {
	return testutil.MakeLeads(1, n)
}

// =============================================================================
// Key Helpers
// =============================================================================

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func keySpace() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func keyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

func keyDown() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDown}
}
