// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the post catalog index for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
)

const formatURI = "raido://record-format"

// Server wraps the MCP server with the catalog tools.
type Server struct {
	mcp *server.MCPServer
	idx index.CatalogIndex
}

// New creates a new MCP server with all catalog tools registered.
func New(idx index.CatalogIndex, version string) *Server {
	s := &Server{idx: idx}

	s.mcp = server.NewMCPServer(
		"Raido",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts newest first, optionally filtered by tag."),
		mcp.WithString("tag", mcp.Description("Only posts carrying this tag")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Posts to skip")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Read one post with every field merged from all views."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post uid or grouping key (e.g. puppy)")),
	), s.getPost)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search over post titles, excerpts and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List the tag aggregate with per-tag post counts."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_record_format",
		mcp.WithDescription("Returns how posts are stored in the site's page files. "+
			"Read it before editing a page file by hand."),
	), s.getRecordFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Record Format",
			mcp.WithResourceDescription("Syntax and rules of post records in the page files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPosts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, total, err := s.idx.ListPosts(
		req.GetString("tag", ""),
		req.GetInt("limit", 50),
		req.GetInt("offset", 0),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"posts": posts, "total": total})
}

func (s *Server) getPost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.idx.GetPost(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) searchPosts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.idx.Search(query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no posts found"), nil
	}
	return jsonResult(results)
}

func (s *Server) listTags(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.idx.Tags()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) getRecordFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
