package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/config"
	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/fileutil"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
)

var (
	cfgFile  string
	homeDir  string
	verbose  bool
	useLocal bool // Force local database even when remote is configured
	cfg      *config.Config
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "leaddesk",
	Short: "Sales lead desk",
	Long: `leaddesk keeps sales leads in a local SQLite database and lets you
browse, filter, select and export them from a terminal UI.

Views are described by query strings such as "status=new&owner=alice&page=2",
so the same view can be opened in the TUI, listed, exported or scheduled.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" {
			return nil
		}

		// Set up logging
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		// Load config (--home is passed through so it influences
		// where config.toml is loaded from, like LEADDESK_HOME).
		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Ensure data directory exists on first use
		if err := fileutil.SecureMkdirAll(cfg.Data.DataDir, 0700); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.Data.DataDir, err)
		}

		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// listOptions builds list view defaults from the [listview] section.
func listOptions(c *config.Config) listview.Options {
	return listview.Options{
		Limits:       c.ListView.PageSizes,
		DefaultLimit: c.ListView.DefaultLimit,
		SearchDelay:  c.ListView.SearchDelay(),
		Sort: listview.SortState{
			Column:     c.ListView.SortBy,
			Descending: query.ParseSortDirection(c.ListView.SortDir) == query.SortDesc,
		},
	}
}

// exportConfig builds orchestrator settings from the [export] section.
func exportConfig(c *config.Config) export.Config {
	return export.Config{
		SelectionThreshold: c.Export.SelectionThreshold,
		FilteredThreshold:  c.Export.FilteredThreshold,
		MaxRecords:         c.Export.MaxRecords,
		PageSize:           c.Export.PageSize,
		Concurrency:        c.Export.Concurrency,
		Dir:                c.ExportsDir(),
	}
}

// defaultFormat returns the configured export format, falling back to CSV.
func defaultFormat(c *config.Config) export.Format {
	f, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return export.FormatCSV
	}
	return f
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.leaddesk/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides LEADDESK_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&useLocal, "local", false, "force local database (override remote config)")
}
