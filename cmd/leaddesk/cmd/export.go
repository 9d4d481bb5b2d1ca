package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/export"
	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
)

var (
	exportIDs    []int64
	exportFormat string
	exportName   string
	exportYes    bool
)

// errExportCanceled is returned when the confirmation prompt is declined.
var errExportCanceled = errors.New("export canceled")

var exportCmd = &cobra.Command{
	Use:   "export [view]",
	Short: "Export leads to CSV or Excel",
	Long: `Export every lead matching a view, or a list of lead IDs, to a file in
the exports directory ([export].dir, default <data dir>/exports).

Large exports ask for confirmation first. Use --yes to skip the prompt, which
is required when stdin is not a terminal.

Examples:
  leaddesk export "status=new&owner=__unassigned__"
  leaddesk export "range=this-month" --format excel --yes
  leaddesk export --ids 12,15,19 --name follow-ups`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(exportIDs) > 0 && len(args) > 0 {
			return fmt.Errorf("pass either a view or --ids, not both")
		}

		format := defaultFormat(cfg)
		if exportFormat != "" {
			f, err := export.ParseFormat(exportFormat)
			if err != nil {
				return err
			}
			format = f
		}

		engine, err := OpenEngine()
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer engine.Close()

		req := export.Request{Format: format, Name: exportName}
		if len(exportIDs) > 0 {
			req.Scope = export.ScopeSelection
			req.IDs = exportIDs
			if req.Name == "" {
				req.Name = "leads-selected"
			}
		} else {
			var view string
			if len(args) > 0 {
				view = args[0]
			}
			params := listview.ParamsForQuery(view, listOptions(cfg))
			total, err := countMatches(cmd, engine, params)
			if err != nil {
				return err
			}
			req.Scope = export.ScopeFiltered
			req.Params = params
			req.Total = total
			if req.Name == "" {
				req.Name = "leads"
			}
		}

		notifier := export.NotifierFunc(func(n export.Notice) {
			fmt.Fprintln(os.Stderr, n.Text)
		})
		orch := export.NewOrchestrator(engine, exportConfig(cfg), notifier, logger)

		state, err := orch.Request(req)
		if err != nil {
			return err
		}
		switch state {
		case export.Idle:
			return nil
		case export.Confirming:
			ok, err := confirmExport(orch.Job())
			if err != nil {
				return err
			}
			if !ok {
				_ = orch.Cancel()
				return errExportCanceled
			}
			if err := orch.Confirm(); err != nil {
				return err
			}
		}

		job, err := orch.Wait(cmd.Context())
		if err != nil {
			return err
		}
		if job.State == export.Failed {
			return fmt.Errorf("export failed")
		}
		if job.Path != "" {
			fmt.Println(job.Path)
		}
		return nil
	},
}

// countMatches asks the engine for the size of the view without paging
// through it.
func countMatches(cmd *cobra.Command, engine query.Engine, params query.ListParams) (int64, error) {
	page, err := engine.ListLeads(cmd.Context(), params.WithPage(1, 1))
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return page.Pagination.Total, nil
}

// confirmExport resolves an export awaiting confirmation: --yes accepts it,
// a terminal gets a prompt, anything else is an error.
func confirmExport(job export.Job) (bool, error) {
	if exportYes {
		return true, nil
	}
	if !isTerminal(os.Stdin.Fd()) {
		return false, fmt.Errorf("%s\n\nstdin is not a terminal; pass --yes to confirm", export.ConfirmPrompt(job))
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(export.ConfirmPrompt(job)).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Int64SliceVar(&exportIDs, "ids", nil, "export these lead IDs instead of a view")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or excel (default from config)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "file name prefix")
	exportCmd.Flags().BoolVarP(&exportYes, "yes", "y", false, "skip the confirmation prompt")
}
