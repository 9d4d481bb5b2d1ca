// Package navstate holds the addressable view state shared by the list-view
// controllers. The state is an ordered set of query-string parameters; every
// controller reads it fresh, mutates only its own keys, and writes the whole
// map back through Store.Commit.
package navstate

import (
	"net/url"
	"strings"
)

// State is an ordered mapping of query keys to values. The zero value is an
// empty state ready to use.
type State struct {
	keys   []string
	values map[string]string
}

// Parse decodes a raw query string ("page=2&status=new"). A leading "?" is
// ignored. Malformed pairs are skipped rather than reported; when a key
// repeats, the last value wins but the first position is kept.
func Parse(raw string) State {
	raw = strings.TrimPrefix(raw, "?")
	var s State
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil || key == "" {
			continue
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		s.Set(key, val)
	}
	return s
}

// FromValues builds a State from url.Values, taking the first value of each
// key. Keys are ordered alphabetically since url.Values carries no order.
func FromValues(v url.Values) State {
	var s State
	for _, key := range sortedKeys(v) {
		s.Set(key, v.Get(key))
	}
	return s
}

// Get returns the value for key, or "" when absent.
func (s State) Get(key string) string {
	return s.values[key]
}

// Lookup returns the value for key and whether it is present.
func (s State) Lookup(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (s *State) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Delete removes key if present.
func (s *State) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (s State) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len returns the number of keys.
func (s State) Len() int {
	return len(s.keys)
}

// Clone returns a deep copy that can be mutated independently.
func (s State) Clone() State {
	c := State{keys: append([]string(nil), s.keys...)}
	if s.values != nil {
		c.values = make(map[string]string, len(s.values))
		for k, v := range s.values {
			c.values[k] = v
		}
	}
	return c
}

// Equal reports whether both states hold the same keys, values and order.
func (s State) Equal(o State) bool {
	if len(s.keys) != len(o.keys) {
		return false
	}
	for i, k := range s.keys {
		if o.keys[i] != k || o.values[k] != s.values[k] {
			return false
		}
	}
	return true
}

// Encode renders the state as a query string without a leading "?".
func (s State) Encode() string {
	var b strings.Builder
	for i, k := range s.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(escapeValue(s.values[k]))
	}
	return b.String()
}

// escapeValue query-escapes v but leaves commas readable, since list
// filters join tokens with them.
func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%2C", ",")
}

// Values converts the state to url.Values.
func (s State) Values() url.Values {
	v := make(url.Values, len(s.keys))
	for _, k := range s.keys {
		v.Set(k, s.values[k])
	}
	return v
}

// String implements fmt.Stringer.
func (s State) String() string {
	return s.Encode()
}
