package listview

import (
	"testing"

	"github.com/wesm/leaddesk/internal/navstate"
)

func TestSearchDebounceCommitsOnce(t *testing.T) {
	store := navstate.NewStore("page=4")
	s := NewSearch(store, 0)
	defer s.Close()

	commits := 0
	store.Subscribe(func(navstate.Change) { commits++ })

	t1 := s.Type("a")
	t2 := s.Type("ab")
	t3 := s.Type("abc")

	// Timers fire in order; only the last one is current.
	for _, tok := range []DebounceToken{t1, t2} {
		if s.Settle(tok) {
			t.Errorf("stale token %d committed", tok)
		}
	}
	if !s.Settle(t3) {
		t.Fatal("newest token did not commit")
	}

	if commits != 1 {
		t.Errorf("commits = %d, want 1", commits)
	}
	if got := store.String(); got != "page=1&search=abc" {
		t.Errorf("state = %q", got)
	}
	if s.Settle(t3) {
		t.Error("settling an unchanged value should not commit again")
	}
}

func TestSearchInputIsImmediate(t *testing.T) {
	store := navstate.NewStore("")
	s := NewSearch(store, 0)
	defer s.Close()

	s.Type("acm")
	got := s.State()
	if got.Input != "acm" || got.Committed != "" {
		t.Errorf("State = %+v, want input ahead of committed", got)
	}
	if s.Delay() != DefaultSearchDelay {
		t.Errorf("Delay = %v", s.Delay())
	}
}

func TestSearchEmptyRemovesKey(t *testing.T) {
	store := navstate.NewStore("search=acme&page=3")
	s := NewSearch(store, 0)
	defer s.Close()

	if s.Input() != "acme" {
		t.Fatalf("input not seeded from URL: %q", s.Input())
	}
	tok := s.Type("   ")
	s.Settle(tok)
	if store.Read().Has(SearchKey) {
		t.Errorf("search key still present: %q", store.String())
	}
	if got := store.Read().Get(PageKey); got != "1" {
		t.Errorf("page = %q, want 1", got)
	}
}

func TestSearchMountDoesNotCommit(t *testing.T) {
	store := navstate.NewStore("search=acme&page=3")
	s := NewSearch(store, 0)
	defer s.Close()

	if s.Flush() {
		t.Error("flushing the URL value should not commit")
	}
	if got := store.Read().Get(PageKey); got != "3" {
		t.Errorf("page = %q, want untouched 3", got)
	}
}

func TestSearchFlushCancelsPending(t *testing.T) {
	store := navstate.NewStore("")
	s := NewSearch(store, 0)
	defer s.Close()

	tok := s.Type("globex")
	if !s.Flush() {
		t.Fatal("Flush should commit")
	}
	s.Type("globex corp")
	s.Clear()
	if s.Settle(tok) {
		t.Error("token issued before Flush should be stale")
	}
	if store.Read().Has(SearchKey) || s.Input() != "" {
		t.Errorf("Clear left state %q input %q", store.String(), s.Input())
	}
}

func TestSearchReconcile(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		navigate  string
		wantInput string
	}{
		{"adopt url when input empty", "", "search=initech", "initech"},
		{"keep active typing", "hoo", "search=initech", "hoo"},
		{"empty url leaves input", "hoo", "page=2", "hoo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := navstate.NewStore("")
			s := NewSearch(store, 0)
			defer s.Close()
			if tt.input != "" {
				s.Type(tt.input)
			}
			store.Navigate(tt.navigate)
			if got := s.Input(); got != tt.wantInput {
				t.Errorf("Input = %q, want %q", got, tt.wantInput)
			}
		})
	}
}

func TestSearchAdoptionInvalidatesPendingToken(t *testing.T) {
	store := navstate.NewStore("")
	s := NewSearch(store, 0)
	defer s.Close()

	tok := s.Type("")
	store.Navigate("search=umbrella")
	if s.Settle(tok) {
		t.Error("pending token should be stale after adopting the URL value")
	}
	if got := store.Read().Get(SearchKey); got != "umbrella" {
		t.Errorf("search = %q, want umbrella", got)
	}
}

func TestSearchBackRestoresEarlierQuery(t *testing.T) {
	store := navstate.NewStore("search=acme")
	s := NewSearch(store, 0)
	defer s.Close()

	store.Navigate("")
	s.Clear()
	store.Back()
	if got := s.Input(); got != "acme" {
		t.Errorf("after Back, Input = %q, want acme", got)
	}
}
