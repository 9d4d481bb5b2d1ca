package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/query"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lead statistics",
	Long: `Show lead counts by status, unassigned leads and pipeline value.

Uses remote server if [remote].url is configured, otherwise uses local database.
Use --local to force local database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := OpenEngine()
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer engine.Close()

		stats, err := engine.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		// Show source indicator
		if IsRemoteMode() {
			fmt.Printf("Remote: %s\n", cfg.Remote.URL)
		} else {
			fmt.Printf("Database: %s\n", cfg.DatabaseDSN())
		}

		fmt.Printf("  Leads:       %d\n", stats.Total)
		fmt.Printf("  Unassigned:  %d\n", stats.Unassigned)
		fmt.Printf("  Pipeline:    $%d\n", stats.ValueCents/100)

		for _, s := range query.AllStatuses {
			fmt.Printf("  %-12s %d\n", s.Label()+":", stats.ByStatus[s])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
