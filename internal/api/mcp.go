package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Analyzer Analyzer
	Reports  ReportStore
	Version  string
}

// NewMCPServer creates an MCP server with the persona tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"persona",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("persona builds rule-based personality reports from a Reddit user's public posts and comments."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("analyze_user",
			mcp.WithDescription("Fetch a Reddit user's recent posts and comments and return their persona report."),
			mcp.WithString("username", mcp.Description("Reddit username, with or without the u/ prefix"), mcp.Required()),
			mcp.WithNumber("post_limit", mcp.Description("Maximum submissions to inspect (default from config)")),
			mcp.WithNumber("comment_limit", mcp.Description("Maximum comments to inspect (default from config)")),
		),
		mcpAnalyzeUser(deps),
	)

	s.AddTool(
		mcp.NewTool("list_reports",
			mcp.WithDescription("List saved persona reports, newest first."),
			mcp.WithString("username", mcp.Description("Only list reports for this user")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of reports (default 10)")),
		),
		mcpListReports(deps),
	)

	s.AddTool(
		mcp.NewTool("get_report",
			mcp.WithDescription("Return the full text of a saved persona report."),
			mcp.WithString("id", mcp.Description("Report ID"), mcp.Required()),
		),
		mcpGetReport(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"reports://recent",
			"Recent Reports",
			mcp.WithResourceDescription("Last 10 saved persona reports (metadata only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpAnalyzeUser(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		username, err := req.RequireString("username")
		if err != nil {
			return mcpError("username is required"), nil
		}
		opts := persona.Options{
			PostLimit:    max(req.GetInt("post_limit", 0), 0),
			CommentLimit: max(req.GetInt("comment_limit", 0), 0),
		}

		res, err := deps.Analyzer.Analyze(ctx, username, opts)
		if errors.Is(err, persona.ErrNoData) {
			return mcpError(fmt.Sprintf("no posts or comments found for %s", username)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		return mcpText(res.Report), nil
	}
}

func mcpListReports(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		reports, err := deps.Reports.ListReports(req.GetString("username", ""), limit)
		if err != nil {
			return mcpError(fmt.Sprintf("listing reports failed: %v", err)), nil
		}
		if reports == nil {
			reports = []storage.Report{}
		}

		b, err := json.Marshal(reports)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal reports: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetReport(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		rep, err := deps.Reports.GetReport(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("report %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("loading report failed: %v", err)), nil
		}
		return mcpText(rep.Body), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		reports, err := deps.Reports.ListReports("", 10)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}

		type reportSummary struct {
			ID        string `json:"id"`
			Username  string `json:"username"`
			CreatedAt string `json:"created_at"`
			Posts     int    `json:"posts"`
			Comments  int    `json:"comments"`
		}

		summaries := make([]reportSummary, len(reports))
		for i, r := range reports {
			summaries[i] = reportSummary{
				ID:        r.ID,
				Username:  r.Username,
				CreatedAt: r.CreatedAt.Format(time.RFC3339),
				Posts:     r.PostCount,
				Comments:  r.CommentCount,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reports: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
