package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/search"
)

var printer = message.NewPrinter(language.English)

// highlightTerms applies highlight styling to all occurrences of search terms in text.
// Highlighting is case-insensitive.
func highlightTerms(text, searchQuery string) string {
	if searchQuery == "" || text == "" {
		return text
	}
	terms := extractSearchTerms(searchQuery)
	if len(terms) == 0 {
		return text
	}
	return applyHighlight(text, terms)
}

// extractSearchTerms extracts displayable search terms from a query string.
func extractSearchTerms(queryStr string) []string {
	q := search.Parse(queryStr)
	var terms []string
	terms = append(terms, q.TextTerms...)
	terms = append(terms, q.NameTerms...)
	terms = append(terms, q.EmailTerms...)
	terms = append(terms, q.CompanyTerms...)
	seen := make(map[string]bool, len(terms))
	filtered := terms[:0]
	for _, t := range terms {
		lower := strings.ToLower(t)
		if t != "" && !seen[lower] {
			seen[lower] = true
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// applyHighlight wraps case-insensitive occurrences of any term with
// highlightStyle. It works on runes so lowercasing cannot shift offsets.
func applyHighlight(text string, terms []string) string {
	textRunes := []rune(text)
	lowerRunes := []rune(strings.ToLower(text))
	if len(lowerRunes) != len(textRunes) {
		return text
	}
	marked := make([]bool, len(textRunes))
	found := false
	for _, term := range terms {
		t := []rune(strings.ToLower(term))
		if len(t) == 0 {
			continue
		}
		for i := 0; i+len(t) <= len(lowerRunes); i++ {
			if string(lowerRunes[i:i+len(t)]) == string(t) {
				for j := i; j < i+len(t); j++ {
					marked[j] = true
				}
				found = true
			}
		}
	}
	if !found {
		return text
	}

	var sb strings.Builder
	for i := 0; i < len(textRunes); {
		j := i
		for j < len(textRunes) && marked[j] == marked[i] {
			j++
		}
		seg := string(textRunes[i:j])
		if marked[i] {
			seg = highlightStyle.Render(seg)
		}
		sb.WriteString(seg)
		i = j
	}
	return sb.String()
}

// formatCount formats a count with thousands separators (e.g., "12,345").
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatValue renders a deal value in cents as whole dollars.
func formatValue(cents int64) string {
	if cents == 0 {
		return "-"
	}
	return printer.Sprintf("$%d", cents/100)
}

// statusLabel returns the display label for a status.
func statusLabel(s query.LeadStatus) string {
	return s.Label()
}

// ownerLabel returns the owner's name or a dash when unassigned.
func ownerLabel(l query.Lead) string {
	switch {
	case l.OwnerName != "":
		return l.OwnerName
	case l.OwnerID != "":
		return l.OwnerID
	default:
		return "-"
	}
}

func pageSizeLabel(limit int) string {
	return fmt.Sprintf("Page size: %d", limit)
}

// padRight pads a string with spaces to fill width terminal cells.
// Uses lipgloss.Width to correctly handle ANSI codes and full-width characters.
func padRight(s string, width int) string {
	sw := lipgloss.Width(s)
	if sw >= width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

// truncateRunes truncates a string to fit within maxWidth terminal cells.
// Full-width characters occupy 2 cells. Newlines and tabs become spaces so
// a field never breaks the table layout.
func truncateRunes(s string, maxWidth int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// fitCell truncates s to width cells and pads it to exactly width.
func fitCell(s string, width int) string {
	s = truncateRunes(s, width)
	return s + strings.Repeat(" ", max(width-runewidth.StringWidth(s), 0))
}

// truncateToWidth returns the prefix of s that fits within maxWidth visual columns.
func truncateToWidth(s string, maxWidth int) string {
	return ansi.Truncate(s, maxWidth, "")
}

// skipToWidth returns the suffix of s starting after skipWidth visual columns.
func skipToWidth(s string, skipWidth int) string {
	return ansi.Cut(s, skipWidth, 10000)
}
