// Package mcpserver exposes the loader orchestrator as an MCP tool over
// stdio, so an editor or agent can request a module's documentation
// without shelling out to the CLI. It mirrors the teacher's own
// pkg/mcp server/tools/handlers/middleware split, generalized from a UI
// component catalog to the module loader's single load operation.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/tsdocgraph/loader/pkg/mcplog"
	"github.com/tsdocgraph/loader/pkg/orchestrator"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for the documentation loader.
type Server struct {
	mcpServer *server.MCPServer
	loader    *orchestrator.Loader
	logger    *mcplog.Logger // may be nil if logging is disabled
}

// NewServer creates an MCP server backed by loader. Pass nil for logger to
// disable tool-call logging.
func NewServer(loader *orchestrator.Loader, logger *mcplog.Logger) *Server {
	s := &Server{loader: loader, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("tsdocgraph", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: loadModuleTool(), Handler: s.handleLoadModule},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the logger if one is active. Should be deferred after
// NewServer.
func (s *Server) Close() error {
	if s.logger != nil {
		return s.logger.Close()
	}
	return nil
}
