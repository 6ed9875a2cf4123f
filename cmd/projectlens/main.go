// Projectlens serves project analysis, file access and command execution to
// local tooling.
//
// Usage:
//
//	# Start the WebSocket server on localhost:3000
//	projectlens serve
//
//	# Analyze a directory once and print the JSON result
//	projectlens analyze ./myproject --deps --errors
//
//	# Serve workspace tools over MCP stdio
//	projectlens mcp --root ./myproject
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/analysis"
	"github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/fyrsmithlabs/projectlens/internal/logging"
	"github.com/fyrsmithlabs/projectlens/internal/vcs"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the optional YAML config file shared by every subcommand.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "projectlens",
	Short: "Project analysis over WebSocket and MCP",
	Long: `projectlens inspects a local project directory and reports its files,
structure, dependencies, heuristic findings, git state and size metrics.

It also reads and writes files and runs shell commands on behalf of a
connected client, so it only listens on localhost by default.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/projectlens/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "projectlens %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", gitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildDate)
	},
}

// newLogger builds the application logger. When stdout carries a protocol
// or a result, logs go to stderr instead.
func newLogger(cfg *config.Config, toStderr bool) (*logging.Logger, error) {
	logCfg, err := logging.FromAppConfig(cfg.Logging, cfg.Observability.ServiceName)
	if err != nil {
		return nil, err
	}
	if toStderr {
		logCfg.Output = logging.OutputConfig{Stderr: true}
	}
	return logging.NewLogger(logCfg)
}

func newAnalyzer(cfg *config.Config, logger *zap.Logger) (*analysis.Service, error) {
	git, err := vcs.NewFromConfig(cfg.VCS, logger.Named("vcs"))
	if err != nil {
		return nil, fmt.Errorf("vcs: %w", err)
	}
	svc, err := analysis.NewService(cfg.Scan, git, logger.Named("analysis"))
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return svc, nil
}
