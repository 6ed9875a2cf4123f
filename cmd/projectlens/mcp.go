package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/fyrsmithlabs/projectlens/internal/mcp"
	"github.com/fyrsmithlabs/projectlens/internal/telemetry"
)

var mcpRoot string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve workspace tools over MCP stdio",
	Long: `Run an MCP server on stdin/stdout exposing read_file, write_file,
list_files and analyze_project. Every path is confined to the workspace root.
Logs are written to stderr.

Examples:
  # Serve the current directory
  projectlens mcp

  # Serve another project
  projectlens mcp --root ~/src/myproject`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err := newLogger(cfg, true)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
		zl := logger.Underlying()

		tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version), zl.Named("telemetry"))
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() { _ = tel.Shutdown(context.Background()) }()

		analyzer, err := newAnalyzer(cfg, zl)
		if err != nil {
			return err
		}
		srv, err := mcp.NewServer(&mcp.Config{
			Name:    "projectlens",
			Version: version,
			Root:    mcpRoot,
			Logger:  zl.Named("mcp"),
		}, analyzer)
		if err != nil {
			return err
		}

		zl.Info("mcp server starting", zap.String("root", srv.Root()))
		return srv.Run(ctx)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpRoot, "root", ".", "workspace root the tools are confined to")
}
