package cmd

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/config"
	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
)

// newTestRootCmd creates a fresh root command for testing, avoiding mutation
// of the global rootCmd.
func newTestRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaddesk",
		Short: "Sales lead desk",
	}
}

// useTestConfig points the package globals at a config rooted in a temp
// directory and restores them afterwards.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.Load("", t.TempDir())
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	savedCfg, savedLogger, savedLocal := cfg, logger, useLocal
	cfg = c
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	useLocal = false
	t.Cleanup(func() {
		cfg, logger, useLocal = savedCfg, savedLogger, savedLocal
	})
	return c
}

func TestExecuteContext_CancellationPropagates(t *testing.T) {
	var contextWasCancelled atomic.Bool
	handlerStarted := make(chan struct{})

	testRoot := newTestRootCmd()
	testRoot.AddCommand(&cobra.Command{
		Use: "test-cancel",
		RunE: func(cmd *cobra.Command, args []string) error {
			close(handlerStarted)
			select {
			case <-cmd.Context().Done():
				contextWasCancelled.Store(true)
				return cmd.Context().Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		testRoot.SetArgs([]string{"test-cancel"})
		done <- testRoot.ExecuteContext(ctx)
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("command handler did not start in time")
	}

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled error, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteContext did not return after context cancellation")
	}

	if !contextWasCancelled.Load() {
		t.Error("command did not observe context cancellation")
	}
}

// NOTE: This test modifies the package-level rootCmd variable and must NOT use t.Parallel().
func TestExecuteContext_PropagatesContext(t *testing.T) {
	savedRootCmd := rootCmd
	defer func() { rootCmd = savedRootCmd }()

	type ctxKey string
	var receivedCtx context.Context
	testRoot := newTestRootCmd()
	testRoot.AddCommand(&cobra.Command{
		Use: "test-ctx",
		RunE: func(cmd *cobra.Command, args []string) error {
			receivedCtx = cmd.Context()
			return nil
		},
	})
	rootCmd = testRoot

	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")
	testRoot.SetArgs([]string{"test-ctx"})
	if err := ExecuteContext(ctx); err != nil {
		t.Fatalf("ExecuteContext returned unexpected error: %v", err)
	}
	if receivedCtx == nil {
		t.Fatal("command did not receive context")
	}
	if got := receivedCtx.Value(ctxKey("k")); got != "v" {
		t.Errorf("context value = %v, want v", got)
	}
}

func TestListOptionsFromConfig(t *testing.T) {
	c := useTestConfig(t)
	c.ListView.PageSizes = []int{5, 15}
	c.ListView.DefaultLimit = 15
	c.ListView.SearchDelayMS = 250
	c.ListView.SortBy = "name"
	c.ListView.SortDir = "asc"

	got := listOptions(c)
	want := listview.Options{
		Limits:       []int{5, 15},
		DefaultLimit: 15,
		SearchDelay:  250 * time.Millisecond,
		Sort:         listview.SortState{Column: "name"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestListOptionsDefaults(t *testing.T) {
	c := useTestConfig(t)
	got := listOptions(c)
	if got.Sort != listview.DefaultSort {
		t.Errorf("Sort = %+v, want %+v", got.Sort, listview.DefaultSort)
	}
	if got.DefaultLimit != 20 {
		t.Errorf("DefaultLimit = %d, want 20", got.DefaultLimit)
	}
}

func TestExportConfigFromConfig(t *testing.T) {
	c := useTestConfig(t)
	c.Export.MaxRecords = 42

	got := exportConfig(c)
	if got.MaxRecords != 42 {
		t.Errorf("MaxRecords = %d, want 42", got.MaxRecords)
	}
	if got.Dir != c.ExportsDir() {
		t.Errorf("Dir = %q, want %q", got.Dir, c.ExportsDir())
	}
	if got.SelectionThreshold != export.DefaultSelectionThreshold {
		t.Errorf("SelectionThreshold = %d, want %d", got.SelectionThreshold, export.DefaultSelectionThreshold)
	}
}

func TestDefaultFormat(t *testing.T) {
	c := useTestConfig(t)
	tests := []struct {
		in   string
		want export.Format
	}{
		{"", export.FormatCSV},
		{"csv", export.FormatCSV},
		{"xlsx", export.FormatExcel},
		{"Excel", export.FormatExcel},
		{"pdf", export.FormatCSV},
	}
	for _, tt := range tests {
		c.Export.Format = tt.in
		if got := defaultFormat(c); got != tt.want {
			t.Errorf("defaultFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
