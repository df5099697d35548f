package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/dshills/forensicq/internal/engine"
)

const (
	// ServerName is the MCP server name
	ServerName = "forensicq"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
	logger zerolog.Logger
}

// NewServer creates a new MCP server backed by eng. The caller owns eng and
// closes it after Serve returns.
func NewServer(eng *engine.Engine, logger zerolog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		engine.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:    mcpServer,
		engine: eng,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until stdin closes or ctx
// is cancelled
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// toolBinding pairs a tool definition with its handler
type toolBinding struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

func (s *Server) tools() []toolBinding {
	return []toolBinding{
		{scanDirectoryTool(), s.handleScanDirectory},
		{searchContentTool(), s.handleSearchContent},
		{searchCategoryTool(), s.handleSearchCategory},
		{listPackagesTool(), s.handleListPackages},
		{packagePathsTool(), s.handlePackagePaths},
		{listAppsTool(), s.handleListApps},
		{releaseMemoryTool(), s.handleReleaseMemory},
		{clearDataTool(), s.handleClearData},
		{getStatsTool(), s.handleGetStats},
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	for _, b := range s.tools() {
		s.mcp.AddTool(b.tool, s.logged(b.tool.Name, b.handler))
	}
}

// logged wraps a handler with debug logging of outcome
func (s *Server) logged(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, request)
		if err != nil {
			s.logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		} else {
			s.logger.Debug().Str("tool", name).Msg("tool call")
		}
		return res, err
	}
}
