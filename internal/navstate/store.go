package navstate

import (
	"sort"
	"sync"
)

// PageKey is the pagination key forced to "1" by CommitOptions.ResetPage.
const PageKey = "page"

// CommitOptions controls how Store.Commit writes the new state.
type CommitOptions struct {
	// ResetPage forces page=1 after the mutator runs.
	ResetPage bool
}

// Change is delivered to subscribers after every state transition.
type Change struct {
	State State
	// External is true for navigation that did not originate from a
	// controller commit: deep links, Back and Forward.
	External bool
}

// Store is the single source of truth for the addressable view state.
// Commits replace the current history entry; only Navigate pushes a new one.
// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	history []State
	index   int
	subs    map[int]func(Change)
	nextSub int
}

// NewStore creates a store positioned at the parsed raw query string.
func NewStore(raw string) *Store {
	return &Store{
		history: []State{Parse(raw)},
		subs:    make(map[int]func(Change)),
	}
}

// Read returns a copy of the current state.
func (s *Store) Read() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[s.index].Clone()
}

// String returns the encoded current state.
func (s *Store) String() string {
	return s.Read().Encode()
}

// Commit performs one read-modify-write cycle. The mutator receives a copy of
// the state as it is at commit time, never a snapshot captured earlier, so
// sibling controllers committing back to back do not lose each other's keys.
func (s *Store) Commit(mutate func(*State), opts CommitOptions) State {
	s.mu.Lock()
	next := s.history[s.index].Clone()
	if mutate != nil {
		mutate(&next)
	}
	if opts.ResetPage {
		next.Set(PageKey, "1")
	}
	s.history[s.index] = next
	out := next.Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Change{State: out})
	return out
}

// Navigate moves to a new address, discarding any forward history. This is
// the path for deep links and typed URLs.
func (s *Store) Navigate(raw string) State {
	next := Parse(raw)

	s.mu.Lock()
	s.history = append(s.history[:s.index+1], next)
	s.index = len(s.history) - 1
	out := next.Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Change{State: out, External: true})
	return out
}

// Back moves one entry back in history. It returns false at the oldest entry.
func (s *Store) Back() bool {
	return s.step(-1)
}

// Forward moves one entry forward in history. It returns false at the newest entry.
func (s *Store) Forward() bool {
	return s.step(1)
}

func (s *Store) step(delta int) bool {
	s.mu.Lock()
	target := s.index + delta
	if target < 0 || target >= len(s.history) {
		s.mu.Unlock()
		return false
	}
	s.index = target
	out := s.history[target].Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Change{State: out, External: true})
	return true
}

// HistoryLen returns the number of history entries and the current position.
func (s *Store) HistoryLen() (length, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history), s.index
}

// Subscribe registers fn to be called after every transition. Callbacks run
// on the committing goroutine, outside the store lock, in registration order.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribersLocked() []func(Change) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

func notify(fns []func(Change), c Change) {
	for _, fn := range fns {
		fn(c)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
