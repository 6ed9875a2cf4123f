package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectlens/internal/analysis"
	"github.com/fyrsmithlabs/projectlens/internal/config"
)

var (
	analyzeFiles  bool
	analyzeDeps   bool
	analyzeErrors bool
	analyzeIndent bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project directory and print the result as JSON",
	Long: `Analyze a project directory once and print the same payload a
project_analysis reply carries. Structure, git info and metrics are always
included; the flags add the optional sections.

Examples:
  # Analyze the current directory
  projectlens analyze

  # Include dependencies and findings, pretty-printed
  projectlens analyze ./myproject --deps --errors --pretty`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		return runAnalyze(cmd.Context(), cmd.OutOrStdout(), configPath, analysis.Request{
			Path:                path,
			IncludeFiles:        analyzeFiles,
			IncludeDependencies: analyzeDeps,
			IncludeErrors:       analyzeErrors,
		}, analyzeIndent)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFiles, "files", false, "include sampled file contents")
	analyzeCmd.Flags().BoolVar(&analyzeDeps, "deps", false, "include dependency manifests")
	analyzeCmd.Flags().BoolVar(&analyzeErrors, "errors", false, "include heuristic findings")
	analyzeCmd.Flags().BoolVar(&analyzeIndent, "pretty", false, "indent the JSON output")
}

func runAnalyze(ctx context.Context, out io.Writer, path string, req analysis.Request, indent bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := newAnalyzer(cfg, logger.Underlying())
	if err != nil {
		return err
	}
	result, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
