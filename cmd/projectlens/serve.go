package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/command"
	"github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/fyrsmithlabs/projectlens/internal/server"
	"github.com/fyrsmithlabs/projectlens/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket server",
	Long: `Start the WebSocket server. Clients connect to ws://localhost:3000/ and
exchange JSON messages of the form {"type": ..., "data": ...}.

Examples:
  # Start with defaults
  projectlens serve

  # Configure via environment
  SERVER_PORT=4000 LOGGING_LEVEL=debug projectlens serve

  # Use a config file
  projectlens serve --config ~/.config/projectlens/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx, configPath)
	},
}

// run serves until ctx is cancelled, then shuts the server down within the
// configured timeout.
func run(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version), zl.Named("telemetry"))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	analyzer, err := newAnalyzer(cfg, zl)
	if err != nil {
		return err
	}
	runner := command.NewRunner(cfg.Command, zl.Named("command"))

	srv, err := server.NewServer(analyzer, runner, logger, server.FromAppConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "projectlens starting",
			zap.String("version", version),
			zap.Bool("metrics", cfg.Observability.MetricsEnabled),
		)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info(context.Background(), "server stopped")
	return nil
}
