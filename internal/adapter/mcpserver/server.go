// Package mcpserver exposes web search and page fetching as MCP tools over
// stdio, so any MCP-capable chat client can call them.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"webscout/internal/infra/config"
	"webscout/pkg/scout"
)

// Tool names.
const (
	ToolWebSearch = "web_search"
	ToolFetchPage = "fetch_page"
)

// Service is the part of scout.Client the tools call.
type Service interface {
	Search(ctx context.Context, query string, max int) []scout.Result
	FetchContent(ctx context.Context, url string, maxLength int) (scout.Page, bool)
}

// Server wraps an MCP server with the webscout tools registered.
type Server struct {
	svc    Service
	search config.SearchConfig
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New registers the tools. name is the server name announced to clients.
func New(svc Service, name string, search config.SearchConfig, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		search: search,
		mcp:    server.NewMCPServer(name, config.Version, server.WithToolCapabilities(false), server.WithRecovery()),
		logger: logger,
	}

	s.mcp.AddTool(mcp.NewTool(ToolWebSearch,
		mcp.WithDescription("Search the web and return the top results with a summary of each page's content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Number of results, 1 to %d (default %d)", search.MaxResults, search.DefaultResults)),
			mcp.Min(1), mcp.Max(10)),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool(ToolFetchPage,
		mcp.WithDescription("Fetch a web page and return its readable text."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL; https:// is assumed when no scheme is given")),
		mcp.WithNumber("max_length",
			mcp.Description(fmt.Sprintf("Maximum characters of content (default %d)", search.PageMaxLength)),
			mcp.Min(1)),
	), s.handleFetch)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.Info("mcp server listening on stdio")
	return stdio.Listen(ctx, in, out)
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	max := req.GetInt("max_results", s.search.DefaultResults)

	results := s.svc.Search(ctx, query, max)
	s.logger.Debug("mcp web_search", "query", query, "results", len(results))
	return mcp.NewToolResultText(scout.FormatResults(query, results)), nil
}

func (s *Server) handleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil || url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	maxLength := req.GetInt("max_length", s.search.PageMaxLength)

	page, ok := s.svc.FetchContent(ctx, url, maxLength)
	if !ok {
		return mcp.NewToolResultError("Could not fetch readable content from " + url), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Title: %s\nSource: %s\n\n%s", page.Title, page.Source, page.Content)), nil
}
