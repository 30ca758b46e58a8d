// ABOUTME: MCP server initialization and configuration for kultpiva.
// ABOUTME: Exposes the beer catalog and label printing as tools for AI agents.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/kultpiva/internal/catalog"
)

// Server wraps the MCP server around a catalog.
type Server struct {
	mcp     *gomcp.Server
	catalog *catalog.Catalog
	logger  *slog.Logger

	// mu serializes tool calls; the catalog is not safe for concurrent use.
	mu sync.Mutex
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithLogger sets the logger used for tool failures.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an MCP server with catalog and label tools.
func NewServer(c *catalog.Catalog, opts ...ServerOption) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "kultpiva",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		catalog: c,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerCatalogTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
