package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// assertParsed parses input and compares the result against want. Nil and
// empty term slices compare equal.
func assertParsed(t *testing.T, input string, want Query) {
	t.Helper()
	got := Parse(input)
	if got == nil {
		t.Fatalf("Parse(%q) returned nil", input)
	}
	if diff := cmp.Diff(want, *got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse(%q) mismatch (-want +got):\n%s", input, diff)
	}
}
