// Package tui provides the terminal lead table for leaddesk.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/navstate"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/selection"
)

// Options configuration for TUI.
type Options struct {
	Version string
	// View is the initial view query string, e.g. "status=new&page=2".
	View   string
	List   listview.Options
	Export export.Config
	Format export.Format
	Logger *slog.Logger
}

// modalType represents the type of modal dialog.
type modalType int

const (
	modalNone modalType = iota
	modalStatusFilter
	modalOwnerFilter
	modalDateFilter
	modalExportConfirm
	modalHelp
)

// Model is the main TUI model following the Elm architecture.
type Model struct {
	engine   query.Engine
	list     *listview.Composer
	selected *selection.Set[int64]
	exporter *export.Orchestrator
	notices  chan export.Notice
	format   export.Format

	// Version info for title bar
	version string

	// Reference data
	team  []query.TeamMember
	stats *query.LeadStats

	cursor       int
	scrollOffset int

	// Modal state
	modal       modalType
	modalCursor int

	// Inline search bar
	searching   bool
	searchInput textinput.Model

	// Terminal dimensions
	width  int
	height int

	spinnerFrame  int
	spinnerActive bool

	// Flash message (temporary notification)
	flashMessage   string
	flashLevel     export.NoticeLevel
	flashExpiresAt time.Time

	quitting bool
}

// New creates a new TUI model with the given options.
func New(engine query.Engine, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	format := opts.Format
	if format == "" {
		format = export.FormatCSV
	}

	store := navstate.NewStore(opts.View)
	list := listview.NewComposer(store, engine, opts.List)

	notices := make(chan export.Notice, 8)
	notifier := export.NotifierFunc(func(n export.Notice) {
		select {
		case notices <- n:
		default:
		}
	})

	ti := textinput.New()
	ti.Placeholder = "search name, email, company:acme status:new"
	ti.CharLimit = 200
	ti.Width = 50
	ti.SetValue(list.Search.Input())

	return Model{
		engine:      engine,
		list:        list,
		selected:    selection.New[int64](),
		exporter:    export.NewOrchestrator(engine, opts.Export, notifier, logger),
		notices:     notices,
		format:      format,
		version:     opts.Version,
		searchInput: ti,
		width:       100,
		height:      24,

		spinnerActive: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchPage(),
		m.loadTeam(),
		m.loadStats(),
		spinnerTick(), // Start spinner for initial load
		waitForNotice(m.notices),
	)
}

// pageLoadedMsg is sent when a list request completes.
type pageLoadedMsg struct {
	req  listview.Request
	page *query.LeadPage
	err  error
}

// teamLoadedMsg is sent when team members are loaded.
type teamLoadedMsg struct {
	team []query.TeamMember
	err  error
}

// statsLoadedMsg is sent when stats are loaded.
type statsLoadedMsg struct {
	stats *query.LeadStats
	err   error
}

// searchDebounceMsg fires after the search delay for one keystroke.
type searchDebounceMsg struct {
	token listview.DebounceToken
}

// noticeMsg carries an export notice.
type noticeMsg struct {
	notice export.Notice
}

// exportTickMsg refreshes export progress while an export runs.
type exportTickMsg struct{}

// flashClearMsg clears the flash message after timeout.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// flashDuration is how long flash messages are displayed.
const flashDuration = 4 * time.Second

// exportTickInterval is how often export progress is redrawn.
const exportTickInterval = 200 * time.Millisecond

// fetchPage issues a request for the current view. Cached pages become
// current immediately and need no command.
func (m Model) fetchPage() tea.Cmd {
	req, cached := m.list.Begin()
	if cached != nil {
		return nil
	}
	list := m.list
	return func() (msg tea.Msg) {
		// Recover from panics to prevent TUI from becoming unresponsive
		defer func() {
			if r := recover(); r != nil {
				msg = pageLoadedMsg{req: req, err: fmt.Errorf("query panic: %v", r)}
			}
		}()
		page, err := list.Run(context.Background(), req)
		return pageLoadedMsg{req: req, page: page, err: err}
	}
}

// loadTeam fetches the team members for the owner filter.
func (m Model) loadTeam() tea.Cmd {
	engine := m.engine
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = teamLoadedMsg{err: fmt.Errorf("team panic: %v", r)}
			}
		}()
		team, err := engine.ListTeamMembers(context.Background())
		return teamLoadedMsg{team: team, err: err}
	}
}

// loadStats fetches lead totals for the title bar.
func (m Model) loadStats() tea.Cmd {
	engine := m.engine
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = statsLoadedMsg{err: fmt.Errorf("stats panic: %v", r)}
			}
		}()
		stats, err := engine.GetStats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

// waitForNotice blocks until the orchestrator reports a notice.
func waitForNotice(ch <-chan export.Notice) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{notice: <-ch}
	}
}

func exportTick() tea.Cmd {
	return tea.Tick(exportTickInterval, func(time.Time) tea.Msg {
		return exportTickMsg{}
	})
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner starts the spinner unless it is already running.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	return spinnerTick()
}

// reload fetches the current view and starts the spinner when a request
// is outstanding.
func (m *Model) reload() tea.Cmd {
	cmd := m.fetchPage()
	m.clampCursor()
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.startSpinner())
}

// showFlash displays a temporary message.
func (m *Model) showFlash(text string, level export.NoticeLevel) tea.Cmd {
	m.flashMessage = text
	m.flashLevel = level
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageLoadedMsg:
		if m.list.Deliver(msg.req, msg.page, msg.err) {
			m.clampCursor()
		}
		return m, nil

	case teamLoadedMsg:
		if msg.err != nil {
			return m, nil
		}
		m.team = msg.team
		before := m.list.Params().Key()
		m.list.Owner.SetKnown(msg.team)
		if m.list.Params().Key() != before {
			cmd := m.reload()
			return m, cmd
		}
		return m, nil

	case statsLoadedMsg:
		if msg.err == nil {
			m.stats = msg.stats
		}
		return m, nil

	case searchDebounceMsg:
		if m.list.Search.Settle(msg.token) {
			m.resetCursor()
			cmd := m.reload()
			return m, cmd
		}
		return m, nil

	case noticeMsg:
		m.exporter.Acknowledge()
		flash := m.showFlash(msg.notice.Text, msg.notice.Level)
		return m, tea.Batch(flash, waitForNotice(m.notices))

	case exportTickMsg:
		if m.exporter.Job().State == export.Running {
			return m, exportTick()
		}
		return m, nil

	case spinnerTickMsg:
		if !m.list.Loading() {
			m.spinnerActive = false
			return m, nil
		}
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		return m, spinnerTick()

	case flashClearMsg:
		if !m.flashExpiresAt.IsZero() && !time.Now().Before(m.flashExpiresAt) {
			m.flashMessage = ""
		}
		return m, nil
	}

	return m, nil
}

// leads returns the rows on the current page.
func (m Model) leads() []query.Lead {
	if p := m.list.Page(); p != nil {
		return p.Data
	}
	return nil
}

// pageSize returns the number of table rows that fit on screen.
func (m Model) pageSize() int {
	// title, filter line, header, separator, footer, flash line
	return max(m.height-6, 1)
}

func (m *Model) clampCursor() {
	n := len(m.leads())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// currentLead returns the lead under the cursor.
func (m Model) currentLead() (query.Lead, bool) {
	leads := m.leads()
	if m.cursor < 0 || m.cursor >= len(leads) {
		return query.Lead{}, false
	}
	return leads[m.cursor], true
}

// Close releases the list controllers.
func (m Model) Close() {
	m.list.Close()
}
