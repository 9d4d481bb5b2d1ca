package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the database schema",
	Long: `Initialize the leaddesk database with the required schema.

This command creates the lead, team member and campaign tables. It is safe
to run multiple times - tables are only created if they don't already exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeLocal("init-db"); err != nil {
			return err
		}

		dbPath := cfg.DatabaseDSN()
		logger.Info("initializing database", "path", dbPath)

		s, err := openLocalStore()
		if err != nil {
			return err
		}
		defer s.Close()

		logger.Info("database initialized successfully")

		stats, err := s.GetStats()
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		fmt.Printf("Database: %s\n", dbPath)
		fmt.Printf("  Leads:        %d\n", stats.LeadCount)
		fmt.Printf("  Team members: %d\n", stats.TeamMemberCount)
		fmt.Printf("  Campaigns:    %d\n", stats.CampaignCount)
		fmt.Printf("  Size:         %.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
