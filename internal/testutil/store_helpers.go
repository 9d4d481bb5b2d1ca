package testutil

import (
	"path/filepath"
	"testing"

	"github.com/wesm/leaddesk/internal/store"
)

// NewTestStore creates a temporary database for testing.
// The database is automatically cleaned up when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	t.Cleanup(func() {
		st.Close()
	})

	if err := st.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	return st
}

// NewSeededStore creates a temporary database filled with the demo data set
// generated from seed.
func NewSeededStore(t *testing.T, count int, seed uint64) *store.Store {
	t.Helper()
	st := NewTestStore(t)
	if _, err := st.Seed(store.SeedOptions{Leads: count, Seed: seed}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return st
}
