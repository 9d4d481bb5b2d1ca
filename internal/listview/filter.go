package listview

import (
	"slices"
	"strings"

	"github.com/wesm/leaddesk/internal/navstate"
)

// Codec maps one filter dimension to and from navigation keys. Read must
// never fail: invalid input yields the dimension's "no filter" value.
type Codec[T any] interface {
	Read(s navstate.State) T
	Write(s *navstate.State, v T)
}

// Filter binds a codec to a store. Every write resets pagination.
type Filter[T any] struct {
	store *navstate.Store
	codec Codec[T]
}

// NewFilter creates a filter controller over codec.
func NewFilter[T any](store *navstate.Store, codec Codec[T]) *Filter[T] {
	return &Filter[T]{store: store, codec: codec}
}

// Value reads the filter from the current state.
func (f *Filter[T]) Value() T {
	return f.codec.Read(f.store.Read())
}

// Set replaces the filter value.
func (f *Filter[T]) Set(v T) {
	f.store.Commit(func(s *navstate.State) {
		f.codec.Write(s, v)
	}, navstate.CommitOptions{ResetPage: true})
}

// Update applies fn to the value read inside the commit, so concurrent
// writers to other keys are never lost.
func (f *Filter[T]) Update(fn func(T) T) {
	f.store.Commit(func(s *navstate.State) {
		f.codec.Write(s, fn(f.codec.Read(*s)))
	}, navstate.CommitOptions{ResetPage: true})
}

// SetCodec serializes a multi-select as comma-joined sorted tokens.
// Tokens failing Valid are dropped on read.
type SetCodec struct {
	Key       string
	Normalize func(string) string // optional
	Valid     func(string) bool
}

func (c *SetCodec) normalize(v string) string {
	v = strings.TrimSpace(v)
	if c.Normalize != nil {
		v = c.Normalize(v)
	}
	return v
}

func (c *SetCodec) Read(s navstate.State) []string {
	raw := s.Get(c.Key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		tok = c.normalize(tok)
		if tok == "" || !c.Valid(tok) {
			continue
		}
		out = append(out, tok)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *SetCodec) Write(s *navstate.State, values []string) {
	var clean []string
	for _, v := range values {
		v = c.normalize(v)
		if v != "" && c.Valid(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		s.Delete(c.Key)
		return
	}
	slices.Sort(clean)
	s.Set(c.Key, strings.Join(slices.Compact(clean), ","))
}

// SetFilter is a multi-select filter. An empty set means no filter.
type SetFilter struct {
	*Filter[[]string]
	codec *SetCodec
}

// NewSetFilter creates a multi-select filter over codec.
func NewSetFilter(store *navstate.Store, codec *SetCodec) *SetFilter {
	return &SetFilter{Filter: NewFilter[[]string](store, codec), codec: codec}
}

// Values returns the selected tokens, sorted.
func (f *SetFilter) Values() []string {
	return f.Value()
}

// Has reports whether v is selected.
func (f *SetFilter) Has(v string) bool {
	return slices.Contains(f.Value(), f.codec.normalize(v))
}

// Toggle adds or removes v. Invalid values are ignored.
func (f *SetFilter) Toggle(v string) {
	v = f.codec.normalize(v)
	if v == "" || !f.codec.Valid(v) {
		return
	}
	f.Update(func(cur []string) []string {
		if i := slices.Index(cur, v); i >= 0 {
			return slices.Delete(cur, i, i+1)
		}
		return append(cur, v)
	})
}

// Clear removes the filter.
func (f *SetFilter) Clear() {
	f.Set(nil)
}
