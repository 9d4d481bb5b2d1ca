package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/store"
)

var (
	seedCount int
	seedValue uint64
	seedReset bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo leads",
	Long: `Generate demo leads, team members and campaigns.

The same --seed always produces the same data, which makes it handy for
screenshots and bug reports. Use --reset to delete existing leads first.

Examples:
  leaddesk seed
  leaddesk seed --count 5000 --seed 42 --reset`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeLocal("seed"); err != nil {
			return err
		}

		s, err := openLocalStore()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.Seed(store.SeedOptions{
			Leads: seedCount,
			Seed:  seedValue,
			Reset: seedReset,
		})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		logger.Debug("seeded database", "leads", res.Leads, "seed", seedValue)
		fmt.Printf("Seeded %s\n", cfg.DatabaseDSN())
		fmt.Printf("  Leads:        %d\n", res.Leads)
		fmt.Printf("  Team members: %d\n", res.TeamMembers)
		fmt.Printf("  Campaigns:    %d\n", res.Campaigns)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCount, "count", 250, "number of leads to create")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 1, "random seed")
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "delete existing leads first")
}
