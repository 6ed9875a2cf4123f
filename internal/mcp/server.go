package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/analysis"
)

// Analyzer runs a project analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error)
}

// Server serves workspace tools for one root directory.
type Server struct {
	mcp      *mcp.Server
	root     string
	analyzer Analyzer
	metrics  *Metrics
	logger   *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "projectlens")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// Root is the workspace directory every tool is confined to.
	Root string

	// Logger for structured logging. MCP owns stdout, so it must not write there.
	Logger *zap.Logger
}

// DefaultConfig returns defaults rooted at the working directory.
func DefaultConfig() *Config {
	return &Config{
		Name:    "projectlens",
		Version: "dev",
		Root:    ".",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates an MCP server with all workspace tools registered.
func NewServer(cfg *Config, analyzer Analyzer) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := analysis.ValidatePath(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace root: %w", err)
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		root:     root,
		analyzer: analyzer,
		metrics:  NewMetrics(logger),
		logger:   logger,
	}
	s.registerTools()

	return s, nil
}

// Root returns the resolved workspace root.
func (s *Server) Root() string {
	return s.root
}

// Run serves the stdio transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport", zap.String("root", s.root))
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves a single session on an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}
