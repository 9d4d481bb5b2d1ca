package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/wesm/leaddesk/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for AI assistant integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets any MCP client query leads with the list_leads, get_leads,
list_team and lead_stats tools. list_leads takes the same view query
string as the TUI.

Add to an MCP client config:
  {
    "mcpServers": {
      "leaddesk": {
        "command": "leaddesk",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := OpenEngine()
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		defer engine.Close()

		return mcpserver.Serve(cmd.Context(), engine, listOptions(cfg))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
