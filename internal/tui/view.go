package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/selection"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgAlt    = lipgloss.AdaptiveColor{Light: "#f0f0f0", Dark: "#181818"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	// Spinner style - NOT faint so it's visible
	spinnerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	separatorStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	// Selected (checked) rows: bold
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	altRowStyle = lipgloss.NewStyle().
			Background(bgAlt)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	loadingStyle = lipgloss.NewStyle().
			Italic(true).
			Background(bgBase)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Background(bgBase)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}).
			Background(bgBase)

	flashErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#aa0000", Dark: "#ff5555"}).
			Background(bgBase)

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#000000"}).
			Background(lipgloss.AdaptiveColor{Light: "#e8d44d", Dark: "#e8d44d"}).
			Bold(true)
)

// Fixed column widths. Name and company share whatever is left.
const (
	colCheck   = 3
	colStatus  = 12
	colOwner   = 14
	colValue   = 12
	colCreated = 10
	colGaps    = 6
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.buildTitleBar())
	sb.WriteString("\n")
	sb.WriteString(m.filterLine())
	sb.WriteString("\n")
	sb.WriteString(m.tableView())
	sb.WriteString(m.renderNotificationLine())
	sb.WriteString("\n")
	sb.WriteString(m.footerView())

	out := sb.String()
	if m.modal != modalNone {
		out = m.overlayModal(out)
	}
	return out
}

// buildTitleBar renders the application name and lead totals.
func (m Model) buildTitleBar() string {
	title := "leaddesk"
	if m.version != "" && m.version != "dev" {
		title += " " + m.version
	}
	stats := m.buildStatsString()
	gap := m.width - 2 - lipgloss.Width(title) - lipgloss.Width(stats)
	if gap < 1 {
		gap = 1
	}
	return titleBarStyle.Render(padRight(title+strings.Repeat(" ", gap)+stats, max(m.width-2, 1)))
}

func (m Model) buildStatsString() string {
	if m.stats == nil {
		return ""
	}
	return fmt.Sprintf("%s leads | %s unassigned | %s pipeline",
		formatCount(m.stats.Total),
		formatCount(m.stats.Unassigned),
		formatValue(m.stats.ValueCents))
}

// filterLine shows the search bar while typing, otherwise the active
// search and filters.
func (m Model) filterLine() string {
	if m.searching {
		return m.renderInfoLine("/"+m.searchInput.View(), m.list.Loading())
	}
	return m.renderInfoLine(m.activeFilters(), m.list.Loading())
}

// activeFilters summarises the view's search and filters.
func (m Model) activeFilters() string {
	var parts []string
	if s := m.list.Search.Input(); s != "" {
		parts = append(parts, fmt.Sprintf("search: %q", s))
	}
	if vals := m.list.Status.Values(); len(vals) > 0 {
		labels := make([]string, len(vals))
		for i, v := range vals {
			labels[i] = query.LeadStatus(v).Label()
		}
		parts = append(parts, "status: "+strings.Join(labels, ", "))
	}
	if vals := m.list.Owner.Values(); len(vals) > 0 {
		labels := make([]string, len(vals))
		for i, v := range vals {
			labels[i] = m.ownerName(v)
		}
		parts = append(parts, "owner: "+strings.Join(labels, ", "))
	}
	if sel := m.list.Dates.Selection(); !sel.IsZero() {
		parts = append(parts, "created: "+sel.Label())
	}
	if len(parts) == 0 {
		return "All leads"
	}
	return strings.Join(parts, " | ")
}

// ownerName resolves an owner filter value for display.
func (m Model) ownerName(id string) string {
	if id == query.UnassignedOwner {
		return "Unassigned"
	}
	for _, tm := range m.team {
		if tm.ID == id {
			return tm.Name
		}
	}
	return id
}

// flexWidths splits the remaining width between name and company.
func (m Model) flexWidths() (nameWidth, companyWidth int) {
	rest := m.width - colCheck - colStatus - colOwner - colValue - colCreated - colGaps
	if rest < 20 {
		rest = 20
	}
	nameWidth = rest * 3 / 5
	companyWidth = rest - nameWidth
	return nameWidth, companyWidth
}

// headerCheckbox renders the tri-state page selection indicator.
func headerCheckbox(st selection.TriState) string {
	switch st {
	case selection.TriAll:
		return "[x]"
	case selection.TriSome:
		return "[-]"
	default:
		return "[ ]"
	}
}

// sortIndicator appends an arrow to the active sort column's header.
func (m Model) sortIndicator(label, column string) string {
	st := m.list.Sort.State()
	if st.Column != column {
		return label
	}
	if st.Descending {
		return label + "↓"
	}
	return label + "↑"
}

func (m Model) headerRow(nameWidth, companyWidth int) string {
	cells := []string{
		headerCheckbox(m.selected.State(m.list.VisibleIDs())),
		fitCell(m.sortIndicator("Name", query.ColumnName), nameWidth),
		fitCell(m.sortIndicator("Company", query.ColumnCompany), companyWidth),
		fitCell(m.sortIndicator("Status", query.ColumnStatus), colStatus),
		fitCell("Owner", colOwner),
		fitCell(m.sortIndicator("Value", query.ColumnValue), colValue),
		fitCell(m.sortIndicator("Created", query.ColumnCreatedAt), colCreated),
	}
	return strings.Join(cells, " ")
}

// tableView renders the lead table, its empty state or its error state.
func (m Model) tableView() string {
	nameWidth, companyWidth := m.flexWidths()
	rows := m.pageSize()

	var sb strings.Builder
	sb.WriteString(tableHeaderStyle.Render(padRight(m.headerRow(nameWidth, companyWidth), m.width)))
	sb.WriteString("\n")
	sb.WriteString(separatorStyle.Render(strings.Repeat("─", m.width)))
	sb.WriteString("\n")

	leads := m.leads()
	used := 0
	switch {
	case m.list.Err() != nil && len(leads) == 0:
		sb.WriteString(errorStyle.Render(padRight(" Couldn't load leads. Press R to retry.", m.width)))
		sb.WriteString("\n")
		used++
	case m.list.Page() == nil:
		sb.WriteString(loadingStyle.Render(padRight(" Loading leads...", m.width)))
		sb.WriteString("\n")
		used++
	case len(leads) == 0:
		sb.WriteString(normalRowStyle.Render(padRight(" No leads match this view.", m.width)))
		sb.WriteString("\n")
		used++
	default:
		end := min(m.scrollOffset+rows, len(leads))
		for i := m.scrollOffset; i < end; i++ {
			sb.WriteString(m.leadRow(i, leads[i], nameWidth, companyWidth))
			sb.WriteString("\n")
			used++
		}
	}

	for ; used < rows; used++ {
		sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) leadRow(i int, l query.Lead, nameWidth, companyWidth int) string {
	check := "[ ]"
	if m.selected.IsSelected(l.ID) {
		check = "[x]"
	}

	search := m.list.Search.Committed()
	cells := []string{
		check,
		highlightTerms(fitCell(l.Name, nameWidth), search),
		highlightTerms(fitCell(l.Company, companyWidth), search),
		fitCell(statusLabel(l.Status), colStatus),
		fitCell(ownerLabel(l), colOwner),
		fitCell(formatValue(l.ValueCents), colValue),
		fitCell(l.CreatedAt.Format(query.DateLayout), colCreated),
	}
	line := padRight(strings.Join(cells, " "), m.width)

	switch {
	case i == m.cursor:
		return cursorRowStyle.Render(line)
	case m.selected.IsSelected(l.ID):
		return selectedRowStyle.Render(line)
	case i%2 == 1:
		return altRowStyle.Render(line)
	default:
		return normalRowStyle.Render(line)
	}
}

// footerView renders key hints, selection count, page position and export
// progress.
func (m Model) footerView() string {
	keys := []string{"↑/k", "↓/j", "n/p page", "/ search", "s/o/d filter", "Space select", "e export", "? help"}

	var right []string
	if n := m.selected.Len(); n > 0 {
		right = append(right, fmt.Sprintf("[%d selected]", n))
	}
	if p := m.list.Page(); p != nil {
		pages := max(p.Pagination.TotalPages, 1)
		right = append(right, fmt.Sprintf("page %d/%d · %s total", p.Pagination.Page, pages, formatCount(p.Pagination.Total)))
	}
	if job := m.exporter.Job(); job.State == export.Running {
		right = append(right, "exporting "+export.Progress(job))
	}
	right = append(right, m.format.Label())

	left := strings.Join(keys, "  ")
	rightStr := strings.Join(right, "  ")
	contentWidth := max(m.width-2, 1)
	gap := contentWidth - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 2 {
		// Drop key hints before the status on narrow terminals.
		left = truncateToWidth(left, max(contentWidth-lipgloss.Width(rightStr)-2, 0))
		gap = max(contentWidth-lipgloss.Width(left)-lipgloss.Width(rightStr), 1)
	}
	return footerStyle.Render(padRight(left+strings.Repeat(" ", gap)+rightStr, contentWidth))
}

func (m Model) spinnerIndicator() string {
	if m.spinnerFrame < len(spinnerFrames) {
		return spinnerFrames[m.spinnerFrame]
	}
	return spinnerFrames[0]
}

// renderInfoLine renders the info line with an optional right-aligned loading spinner.
func (m Model) renderInfoLine(content string, loading bool) string {
	// statsStyle has Padding(0, 1) which adds 2 characters, so content should be m.width-2
	contentWidth := max(m.width-2, 1)

	if content == "" && !loading {
		return statsStyle.Render(strings.Repeat(" ", contentWidth))
	}
	if loading {
		indicator := m.spinnerIndicator()
		gap := contentWidth - lipgloss.Width(content) - lipgloss.Width(indicator)
		if gap < 1 {
			gap = 1
		}
		content += strings.Repeat(" ", gap) + spinnerStyle.Render(indicator)
	}
	return statsStyle.Render(padRight(content, contentWidth))
}

// renderNotificationLine shows the flash message, a stale-data warning or
// a blank line.
func (m Model) renderNotificationLine() string {
	if m.flashMessage != "" {
		style := flashStyle
		if m.flashLevel == export.NoticeError {
			style = flashErrorStyle
		}
		return style.Render(padRight(" "+m.flashMessage, m.width))
	}
	if m.list.Err() != nil && len(m.leads()) > 0 {
		return errorStyle.Render(padRight(" Showing previous results; refresh failed. Press R to retry.", m.width))
	}
	return normalRowStyle.Render(strings.Repeat(" ", m.width))
}

// rawHelpLines contains the help modal content. The first line is the title.
var rawHelpLines = []string{
	"Keyboard Shortcuts",
	"",
	"↑/k ↓/j      Move cursor",
	"g/G          First / last row",
	"n/p ←/→      Next / previous page",
	"L            Cycle page size",
	"/            Search",
	"s o d        Status, owner, created filters",
	"c            Clear search and filters",
	"S            Change sort column",
	"r            Reverse sort",
	"[ ]          Back / forward through views",
	"Space        Select row",
	"a            Select all on page",
	"x            Clear selection",
	"e            Export selection",
	"E            Export everything matching",
	"f            Toggle CSV / Excel",
	"R            Reload",
	"q            Quit",
	"",
	"Press any key to close",
}

func (m Model) renderHelpModal() string {
	maxVisible := min(len(rawHelpLines), max(m.height-6, 3))
	rendered := make([]string, maxVisible)
	for i, line := range rawHelpLines[:maxVisible] {
		if i == 0 {
			rendered[i] = modalTitleStyle.Render(line)
		} else {
			rendered[i] = line
		}
	}
	return strings.Join(rendered, "\n")
}

// renderFilterModal renders a checklist for the open filter modal.
func (m Model) renderFilterModal() string {
	var title string
	switch m.modal {
	case modalStatusFilter:
		title = "Filter by Status"
	case modalOwnerFilter:
		title = "Filter by Owner"
	case modalDateFilter:
		title = "Filter by Created Date"
	}

	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render(title))
	sb.WriteString("\n\n")
	for i, opt := range m.modalOptions() {
		cursor := " "
		if i == m.modalCursor {
			cursor = "▶"
		}
		checkbox := "☐"
		if opt.checked {
			checkbox = "☑"
		}
		if m.modal == modalDateFilter {
			checkbox = "○"
			if opt.checked {
				checkbox = "●"
			}
		}
		sb.WriteString(fmt.Sprintf("%s %s %s\n", cursor, checkbox, opt.label))
	}
	if m.modal == modalDateFilter {
		sb.WriteString("\n[↑/↓] Navigate  [Enter] Apply  [Esc] Close")
	} else {
		sb.WriteString("\n[↑/↓] Navigate  [Space] Toggle  [Enter] Done")
	}
	return sb.String()
}

func (m Model) renderExportConfirmModal() string {
	return modalTitleStyle.Render("Confirm Export") + "\n\n" +
		export.ConfirmPrompt(m.exporter.Job()) + "\n\n" +
		"[Y] Yes  [N] No"
}

// overlayModal renders a modal dialog over the content.
func (m Model) overlayModal(background string) string {
	var modalContent string

	switch m.modal {
	case modalStatusFilter, modalOwnerFilter, modalDateFilter:
		modalContent = m.renderFilterModal()
	case modalExportConfirm:
		modalContent = m.renderExportConfirmModal()
	case modalHelp:
		modalContent = m.renderHelpModal()
	}

	if modalContent == "" {
		return background
	}

	modal := modalStyle.Render(modalContent)

	bgLines := strings.Split(background, "\n")
	modalLines := strings.Split(modal, "\n")

	startLine := max((len(bgLines)-len(modalLines))/2, 0)
	modalWidth := lipgloss.Width(modal)
	leftPadding := max((m.width-modalWidth)/2, 0)

	// Overlay modal onto background, preserving background where modal doesn't cover
	for i, modalLine := range modalLines {
		lineIdx := startLine + i
		if lineIdx >= len(bgLines) {
			break
		}
		bgLine := bgLines[lineIdx]
		bgWidth := lipgloss.Width(bgLine)

		var composite strings.Builder
		if leftPadding > 0 {
			leftBg := truncateToWidth(bgLine, leftPadding)
			composite.WriteString(leftBg)
			if w := lipgloss.Width(leftBg); w < leftPadding {
				composite.WriteString(strings.Repeat(" ", leftPadding-w))
			}
		}
		composite.WriteString(modalLine)

		rightStart := leftPadding + modalWidth
		if rightStart < bgWidth {
			composite.WriteString(skipToWidth(bgLine, rightStart))
		}
		bgLines[lineIdx] = composite.String()
	}

	return strings.Join(bgLines, "\n")
}
