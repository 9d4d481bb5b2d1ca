package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/query/querytest"
	"github.com/wesm/leaddesk/internal/testutil"
)

func standardLeads() []query.Lead {
	return []query.Lead{
		testutil.NewLead(1).WithName("Ann Archer").WithCompany("Acme").Build(),
		testutil.NewLead(2).WithName("Ben Baker").WithCompany("Globex").
			WithStatus(query.StatusClaimed).WithOwner("alice", "Alice Smith").Build(),
		testutil.NewLead(3).WithName("Dan Drake").WithCompany("Initech").
			WithStatus(query.StatusClosed).WithOwner("bob", "Bob Jones").WithValue(12_000_00).Build(),
	}
}

func TestViewRendersTable(t *testing.T) {
	m := NewBuilder().WithLeads(standardLeads()...).Build(t)
	view := stripANSI(m.View())

	testutil.AssertContainsAll(t, view, []string{
		"leaddesk",
		"All leads",
		"Ann Archer", "Globex", "Dan Drake",
		"Claimed", "Alice Smith", "$12,000",
		"2024-01-01",
		"page 1/1 · 3 total",
		"CSV",
	})
}

func TestViewSortIndicator(t *testing.T) {
	m := NewBuilder().WithLeads(standardLeads()...).Build(t)
	view := stripANSI(m.View())
	if !strings.Contains(view, "Created↓") {
		t.Errorf("expected descending indicator on Created:\n%s", view)
	}

	m = press(t, m, key('S'))
	view = stripANSI(m.View())
	if strings.Contains(view, "Created↓") {
		t.Error("Created should lose its indicator after changing sort column")
	}
}

func TestViewFitsTerminal(t *testing.T) {
	for _, size := range []struct{ w, h int }{{80, 24}, {120, 40}, {60, 12}} {
		m := NewBuilder().WithLeads(makeLeads(50)...).WithSize(size.w, size.h).Build(t)
		view := m.View()
		if got := countViewLines(view); got != size.h {
			t.Errorf("%dx%d: view has %d lines, want %d", size.w, size.h, got, size.h)
		}
		for i, line := range strings.Split(view, "\n") {
			if w := lipgloss.Width(line); w > size.w {
				t.Errorf("%dx%d: line %d is %d cells wide", size.w, size.h, i, w)
			}
		}
	}
}

func TestViewSelectionMarks(t *testing.T) {
	m := NewBuilder().WithLeads(standardLeads()...).Build(t)
	m = press(t, m, keySpace())

	view := stripANSI(m.View())
	if !strings.Contains(view, "[x] Ann Archer") {
		t.Errorf("selected row should be checked:\n%s", view)
	}
	if !strings.Contains(view, "[ ] Ben Baker") {
		t.Errorf("unselected row should be unchecked:\n%s", view)
	}
	if !strings.Contains(view, "[-] Name") {
		t.Errorf("header should show partial selection:\n%s", view)
	}
	if !strings.Contains(view, "[1 selected]") {
		t.Errorf("footer should count selection:\n%s", view)
	}

	m = press(t, m, key('a'))
	if view := stripANSI(m.View()); !strings.Contains(view, "[x] Name") {
		t.Errorf("header should show full selection:\n%s", view)
	}
}

func TestViewActiveFilters(t *testing.T) {
	m := NewBuilder().
		WithLeads(standardLeads()...).
		WithTeam(standardTeam()...).
		WithView("search=acme&status=new,closed&owner=alice&range=last-7-days").
		Build(t)
	m, _ = sendMsg(t, m, teamLoadedMsg{team: standardTeam()})

	view := stripANSI(m.View())
	testutil.AssertContainsAll(t, view, []string{
		`search: "acme"`,
		"status: Closed, New",
		"owner: Alice Smith",
		"created: Last 7 days",
	})
}

func TestViewEmptyAndError(t *testing.T) {
	m := NewBuilder().Build(t)
	if view := stripANSI(m.View()); !strings.Contains(view, "No leads match this view.") {
		t.Errorf("empty state missing:\n%s", view)
	}

	eng := &querytest.MockEngine{
		ListLeadsFunc: func(context.Context, query.ListParams) (*query.LeadPage, error) {
			return nil, errors.New("secret dsn in error")
		},
	}
	m = NewBuilder().WithEngine(eng).Build(t)
	view := stripANSI(m.View())
	if !strings.Contains(view, "Couldn't load leads. Press R to retry.") {
		t.Errorf("error state missing:\n%s", view)
	}
	if strings.Contains(view, "secret dsn") {
		t.Error("raw error text must not be shown")
	}
}

func TestViewModals(t *testing.T) {
	m := NewBuilder().WithLeads(standardLeads()...).Build(t)

	m = press(t, m, key('s'))
	view := stripANSI(m.View())
	testutil.AssertContainsAll(t, view, []string{"Filter by Status", "▶ ☐ New", "☐ Unreachable"})

	m = press(t, m, keySpace())
	if view := stripANSI(m.View()); !strings.Contains(view, "▶ ☑ New") {
		t.Errorf("toggled status should be checked:\n%s", view)
	}

	m = press(t, m, keyEsc())
	m = press(t, m, key('?'))
	if view := stripANSI(m.View()); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Errorf("help modal missing:\n%s", view)
	}
	m = press(t, m, key('j'))
	assertModal(t, m, modalNone)
}

func TestViewFlashStyled(t *testing.T) {
	forceColorProfile(t)
	m := NewBuilder().WithLeads(standardLeads()...).Build(t)
	m = press(t, m, key('f'))

	view := m.View()
	if !strings.Contains(stripANSI(view), "Export format: Excel") {
		t.Errorf("flash missing:\n%s", stripANSI(view))
	}
	if !strings.Contains(view, "\x1b[") {
		t.Error("expected styled output with ANSI profile")
	}
}

func TestViewSearchHighlight(t *testing.T) {
	forceColorProfile(t)
	m := NewBuilder().WithLeads(standardLeads()...).WithView("search=archer").Build(t)

	view := m.View()
	want := highlightStyle.Render("Archer")
	if !strings.Contains(view, want) {
		t.Errorf("expected highlighted term in view")
	}
}
