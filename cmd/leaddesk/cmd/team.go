package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "List team members leads can be assigned to",
	Long: `List team members. Their IDs are the values accepted by the owner
key in view queries; use __unassigned__ for leads without an owner.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := OpenEngine()
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer engine.Close()

		team, err := engine.ListTeamMembers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list team: %w", err)
		}
		if len(team) == 0 {
			fmt.Println("No team members found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL")
		fmt.Fprintln(w, "──\t────\t─────")
		for _, m := range team {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(teamCmd)
}
