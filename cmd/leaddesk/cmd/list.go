package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/textutil"
)

var (
	listJSON bool
	listSort string
)

var listCmd = &cobra.Command{
	Use:   "list [view]",
	Short: "List one page of leads for a view",
	Long: `List one page of leads matching a view query string.

The view uses the same keys as the TUI: search, status, owner, range (or
from/to), page and limit. Unknown or malformed values fall back to their
defaults.

Examples:
  leaddesk list
  leaddesk list "status=new,claimed&owner=__unassigned__"
  leaddesk list "search=company:acme&range=last-7-days&page=2" --sort name
  leaddesk list "owner=alice" --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := listOptions(cfg)
		if listSort != "" {
			st, err := parseSortFlag(listSort)
			if err != nil {
				return err
			}
			opts.Sort = st
		}

		var view string
		if len(args) > 0 {
			view = args[0]
		}
		params := listview.ParamsForQuery(view, opts)

		engine, err := OpenEngine()
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer engine.Close()

		page, err := engine.ListLeads(cmd.Context(), params)
		if err != nil {
			return fmt.Errorf("list leads: %w", err)
		}

		if listJSON {
			return outputLeadsJSON(page)
		}
		if len(page.Data) == 0 {
			fmt.Println("No leads match this view.")
			return nil
		}
		outputLeadsTable(page)
		return nil
	},
}

// parseSortFlag parses "column" or "column:asc|desc". A bare column sorts
// ascending.
func parseSortFlag(s string) (listview.SortState, error) {
	column, dir, _ := strings.Cut(s, ":")
	if !query.IsSortable(column) {
		return listview.SortState{}, fmt.Errorf("unknown sort column %q (want one of %s)",
			column, strings.Join(query.SortableColumns, ", "))
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return listview.SortState{Column: column}, nil
	case "desc":
		return listview.SortState{Column: column, Descending: true}, nil
	default:
		return listview.SortState{}, fmt.Errorf("unknown sort direction %q (want asc or desc)", dir)
	}
}

func outputLeadsTable(page *query.LeadPage) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tSTATUS\tOWNER\tVALUE\tCREATED")
	fmt.Fprintln(w, "──\t────\t───────\t──────\t─────\t─────\t───────")
	for _, l := range page.Data {
		owner := l.OwnerName
		if owner == "" {
			owner = l.OwnerID
		}
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t$%d\t%s\n",
			l.ID,
			textutil.TruncateRunes(l.Name, 30),
			textutil.TruncateRunes(l.Company, 30),
			l.Status.Label(),
			textutil.TruncateRunes(owner, 20),
			l.ValueCents/100,
			l.CreatedAt.Format(query.DateLayout),
		)
	}
	w.Flush()
	p := page.Pagination
	fmt.Printf("\nPage %d of %d, %d leads total\n", p.Page, max(p.TotalPages, 1), p.Total)
}

// outputLeadsJSON prints the page in the same envelope the API uses.
func outputLeadsJSON(page *query.LeadPage) error {
	data := make([]map[string]interface{}, len(page.Data))
	for i, l := range page.Data {
		row := map[string]interface{}{
			"id":          l.ID,
			"name":        l.Name,
			"email":       l.Email,
			"phone":       l.Phone,
			"company":     l.Company,
			"source":      l.Source,
			"status":      string(l.Status),
			"owner_id":    l.OwnerID,
			"owner_name":  l.OwnerName,
			"value_cents": l.ValueCents,
			"created_at":  l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			"updated_at":  l.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if l.CampaignID != nil {
			row["campaign_id"] = *l.CampaignID
			row["campaign_name"] = l.CampaignName
		}
		data[i] = row
	}
	output := map[string]interface{}{
		"data": data,
		"pagination": map[string]interface{}{
			"page":        page.Pagination.Page,
			"limit":       page.Pagination.Limit,
			"total":       page.Pagination.Total,
			"total_pages": page.Pagination.TotalPages,
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort column, optionally with :asc or :desc (default from config)")
}
