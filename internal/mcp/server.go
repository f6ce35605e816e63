// Package mcp exposes the bookmark service as MCP tools over stdio so
// assistants can save, search, and refresh bookmarks.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/linkstash/linkstash/internal/pipeline"
	"github.com/linkstash/linkstash/internal/search"
	"github.com/linkstash/linkstash/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
	UserID  string // all tool calls act on this user's collection
}

// Getter fetches a bookmark by ID.
type Getter interface {
	Get(ctx context.Context, id string) (*models.Bookmark, error)
}

// Server wraps the MCP server around the bookmark service.
type Server struct {
	mcpServer *server.MCPServer
	engine    *search.Engine
	pipe      *pipeline.Pipeline
	store     Getter
	userID    string
}

// NewServer creates an MCP server with bookmark tools registered.
func NewServer(config Config, engine *search.Engine, pipe *pipeline.Pipeline, store Getter) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    engine,
		pipe:      pipe,
		store:     store,
		userID:    config.UserID,
	}

	searchTool := mcp.NewTool("search_bookmarks",
		mcp.WithDescription("Search saved bookmarks by meaning and keywords. Returns ranked bookmarks as JSON."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	saveTool := mcp.NewTool("save_bookmark",
		mcp.WithDescription("Save a URL or a note:// text snippet as a bookmark. Metadata is fetched automatically for URLs."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Page URL, or note:// followed by snippet text"),
		),
		mcp.WithString("notes",
			mcp.Description("Personal notes to attach"),
		),
	)
	mcpServer.AddTool(saveTool, s.saveHandler)

	getTool := mcp.NewTool("get_bookmark",
		mcp.WithDescription("Get a specific bookmark by ID"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Bookmark ID to retrieve"),
		),
	)
	mcpServer.AddTool(getTool, s.getHandler)

	refreshTool := mcp.NewTool("refresh_bookmark",
		mcp.WithDescription("Re-fetch a bookmark's page metadata and refresh its search embedding"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Bookmark ID to refresh"),
		),
	)
	mcpServer.AddTool(refreshTool, s.refreshHandler)

	return s
}

func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := req.GetInt("limit", 10)

	result, err := s.engine.Search(ctx, s.userID, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return marshalResult(result.Results)
}

func (s *Server) saveHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	bookmark, err := s.pipe.Save(ctx, pipeline.SaveRequest{
		UserID: s.userID,
		URL:    url,
		Notes:  req.GetString("notes", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return marshalResult(bookmark)
}

func (s *Server) getHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	bookmark, err := s.store.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get bookmark failed: %v", err)), nil
	}
	if bookmark.UserID != s.userID {
		return mcp.NewToolResultError(fmt.Sprintf("bookmark not found: %s", id)), nil
	}
	return marshalResult(bookmark)
}

func (s *Server) refreshHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	result, err := s.pipe.Refresh(ctx, s.userID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
	}
	return marshalResult(result)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
