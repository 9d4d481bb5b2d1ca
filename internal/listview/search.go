package listview

import (
	"strings"
	"sync"
	"time"

	"github.com/wesm/leaddesk/internal/navstate"
)

// DefaultSearchDelay is the quiescence window before typed text is committed.
const DefaultSearchDelay = 300 * time.Millisecond

// SearchState pairs the live input with the value committed to the URL.
type SearchState struct {
	Input     string
	Committed string
}

// DebounceToken identifies one keystroke. Only the newest token settles.
type DebounceToken uint64

// Search owns the search key. Keystrokes update Input immediately; the
// caller schedules Settle after Delay and only the latest keystroke commits.
type Search struct {
	store *navstate.Store
	delay time.Duration

	mu          sync.Mutex
	input       string
	gen         uint64
	unsubscribe func()
}

// NewSearch creates a search controller seeded from the current URL and
// subscribed to external navigation. delay <= 0 uses DefaultSearchDelay.
func NewSearch(store *navstate.Store, delay time.Duration) *Search {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	s := &Search{
		store: store,
		delay: delay,
		input: store.Read().Get(SearchKey),
	}
	s.unsubscribe = store.Subscribe(func(c navstate.Change) {
		if c.External {
			s.Reconcile(c.State)
		}
	})
	return s
}

// Close detaches the controller from the store.
func (s *Search) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Delay returns the quiescence window.
func (s *Search) Delay() time.Duration {
	return s.delay
}

// Input returns the live text.
func (s *Search) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Committed returns the value currently in the URL.
func (s *Search) Committed() string {
	return s.store.Read().Get(SearchKey)
}

// State returns both halves of the search state.
func (s *Search) State() SearchState {
	return SearchState{Input: s.Input(), Committed: s.Committed()}
}

// Type records a keystroke and returns the token to settle after Delay.
// Earlier tokens become stale.
func (s *Search) Type(value string) DebounceToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = value
	s.gen++
	return DebounceToken(s.gen)
}

// Settle commits the input if tok is still the newest keystroke. It reports
// whether the navigation state changed.
func (s *Search) Settle(tok DebounceToken) bool {
	s.mu.Lock()
	if uint64(tok) != s.gen {
		s.mu.Unlock()
		return false
	}
	value := s.input
	s.mu.Unlock()
	return s.commit(value)
}

// Flush commits the current input immediately and cancels any pending token.
func (s *Search) Flush() bool {
	s.mu.Lock()
	s.gen++
	value := s.input
	s.mu.Unlock()
	return s.commit(value)
}

// Clear empties the input and removes the search key.
func (s *Search) Clear() bool {
	s.mu.Lock()
	s.input = ""
	s.gen++
	s.mu.Unlock()
	return s.commit("")
}

func (s *Search) commit(value string) bool {
	value = strings.TrimSpace(value)
	if value == s.store.Read().Get(SearchKey) {
		return false
	}
	s.store.Commit(func(st *navstate.State) {
		if value == "" {
			st.Delete(SearchKey)
		} else {
			st.Set(SearchKey, value)
		}
	}, navstate.CommitOptions{ResetPage: true})
	return true
}

// Reconcile applies an external navigation. The URL value is adopted only
// when the local input is empty, so in-progress typing is never replaced.
func (s *Search) Reconcile(st navstate.State) {
	urlValue := st.Get(SearchKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	if urlValue != "" && s.input == "" {
		s.input = urlValue
		s.gen++
	}
}
