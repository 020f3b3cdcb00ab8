// Package mcp exposes the COLA search service as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/cola-explorer/internal/colas"
	"github.com/EmpoweredVote/cola-explorer/internal/logging"
)

const (
	// ServerName is the MCP server name
	ServerName = "cola-explorer"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultLimit is the page size of search_colas when none is given
	DefaultLimit = 10
)

// Server wraps the MCP server with the COLA store.
type Server struct {
	mcp    *server.MCPServer
	store  *colas.Store
	logger *zap.Logger
}

// NewServer creates an MCP server backed by store.
func NewServer(store *colas.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		store:  store,
		logger: logging.Module(logger, "mcp"),
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until ctx is done or
// stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio")
	return s.listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchColasTool(), s.handleSearchColas)
	s.mcp.AddTool(getColaTool(), s.handleGetCola)
	s.mcp.AddTool(listFilterOptionsTool(), s.handleListFilterOptions)
	s.mcp.AddTool(colaStatsTool(), s.handleColaStats)
}
