package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [view]",
	Short: "Open the interactive lead list",
	Long: `Open an interactive terminal UI for browsing leads.

The optional view argument is a query string to start from, e.g.
"status=new&owner=__unassigned__&range=last-7-days".

Navigation:
  ↑/k, ↓/j    Move up/down
  n/→, p/←    Next/previous page
  L           Cycle page size
  [, ]        Back/forward through view history
  /           Search (name:, email:, company:, phone:, campaign:, source:,
              has:, min:, max: operators)
  s, o, d     Filter by status, owner, created date
  S, r        Cycle sort column, reverse direction
  c           Clear filters
  R           Retry a failed load

Selection & Export:
  Space       Toggle selection
  a           Select/deselect all on page
  x           Clear selection
  e           Export selection
  E           Export everything matching the view
  f           Toggle CSV/Excel
  q           Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := OpenEngine()
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer engine.Close()

		var view string
		if len(args) > 0 {
			view = args[0]
		}

		model := tui.New(engine, tui.Options{
			Version: Version,
			View:    view,
			List:    listOptions(cfg),
			Export:  exportConfig(cfg),
			Format:  defaultFormat(cfg),
			Logger:  logger,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		final, err := p.Run()
		if m, ok := final.(tui.Model); ok {
			m.Close()
		} else {
			model.Close()
		}
		if err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
