package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wesm/leaddesk/internal/listview"
	"github.com/wesm/leaddesk/internal/query"
)

// Tool name constants.
const (
	ToolListLeads = "list_leads"
	ToolGetLeads  = "get_leads"
	ToolListTeam  = "list_team"
	ToolLeadStats = "lead_stats"
)

// Serve creates an MCP server with lead tools and serves over stdio.
// It blocks until stdin is closed or the context is cancelled.
func Serve(ctx context.Context, engine query.Engine, opts listview.Options) error {
	s := newServer(engine, opts)
	stdio := server.NewStdioServer(s)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func newServer(engine query.Engine, opts listview.Options) *server.MCPServer {
	s := server.NewMCPServer(
		"leaddesk",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	h := &handlers{engine: engine, opts: opts}

	s.AddTool(listLeadsTool(), h.listLeads)
	s.AddTool(getLeadsTool(), h.getLeads)
	s.AddTool(listTeamTool(), h.listTeam)
	s.AddTool(leadStatsTool(), h.leadStats)
	return s
}

func listLeadsTool() mcp.Tool {
	return mcp.NewTool(ToolListLeads,
		mcp.WithDescription("List one page of leads. The view is the list's query string, e.g. "+
			"'status=new,claimed&owner=__unassigned__&range=last-7-days&search=acme&page=2&limit=25'. "+
			"Supported keys: page, limit, search, status, owner, range, from, to."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("view",
			mcp.Description("View query string (default: first page of all leads)"),
		),
		mcp.WithString("sort_by",
			mcp.Description("Column to sort by"),
			mcp.Enum(query.SortableColumns...),
		),
		mcp.WithString("sort_dir",
			mcp.Description("Sort direction (default desc)"),
			mcp.Enum("asc", "desc"),
		),
	)
}

func getLeadsTool() mcp.Tool {
	return mcp.NewTool(ToolGetLeads,
		mcp.WithDescription("Get leads by ID. Unknown IDs are skipped."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("Lead IDs (at most 500)"),
			mcp.Items(map[string]any{"type": "number"}),
		),
	)
}

func listTeamTool() mcp.Tool {
	return mcp.NewTool(ToolListTeam,
		mcp.WithDescription("List the team members leads can be assigned to. Use their IDs in the owner filter."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func leadStatsTool() mcp.Tool {
	return mcp.NewTool(ToolLeadStats,
		mcp.WithDescription("Get lead totals by status, the unassigned count and the total pipeline value."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
