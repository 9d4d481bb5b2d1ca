// Package testutil provides test helpers for leaddesk tests.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertEqualSlices, etc.)
//   - store_helpers.go: database test setup (NewTestStore, SeedLeads)
//   - builders.go: lead and page builders for engine test doubles
package testutil
