package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/analysis"
	"github.com/fyrsmithlabs/projectlens/internal/fileops"
	"github.com/fyrsmithlabs/projectlens/internal/sanitize"
)

const (
	// DefaultListPattern lists every file in the workspace.
	DefaultListPattern = "**/*"

	// MaxListedFiles caps a single list_files result.
	MaxListedFiles = 5000

	// listExcludedDir is never descended into by list_files.
	listExcludedDir = "node_modules"
)

var errListLimit = errors.New("list limit reached")

type readFileInput struct {
	Path string `json:"path" jsonschema:"File path, relative to the workspace root"`
}

type readFileOutput struct {
	Path     string `json:"path" jsonschema:"Path as requested"`
	Content  string `json:"content" jsonschema:"Full file content"`
	Language string `json:"language" jsonschema:"Detected language tag"`
}

type writeFileInput struct {
	Path    string `json:"path" jsonschema:"File path, relative to the workspace root"`
	Content string `json:"content" jsonschema:"New file content; replaces the file entirely"`
}

type writeFileOutput struct {
	Path  string `json:"path" jsonschema:"Path as requested"`
	Bytes int    `json:"bytes" jsonschema:"Number of bytes written"`
}

type listFilesInput struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"Glob pattern relative to the workspace root (default **/*)"`
}

type listFilesOutput struct {
	Pattern   string   `json:"pattern" jsonschema:"Pattern that was matched"`
	Files     []string `json:"files" jsonschema:"Matching file paths, slash-separated and sorted"`
	Count     int      `json:"count" jsonschema:"Number of files returned"`
	Truncated bool     `json:"truncated" jsonschema:"True when the result hit the listing cap"`
}

type analyzeProjectInput struct {
	IncludeFiles        bool `json:"includeFiles,omitempty" jsonschema:"Include sampled file contents"`
	IncludeDependencies bool `json:"includeDependencies,omitempty" jsonschema:"Include dependency manifests"`
	IncludeErrors       bool `json:"includeErrors,omitempty" jsonschema:"Include heuristic code findings"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_file",
		Description: "Read a file from the workspace",
	}, instrument(s, "read_file", s.readFile))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "write_file",
		Description: "Write a file in the workspace, creating parent directories as needed",
	}, instrument(s, "write_file", s.writeFile))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_files",
		Description: "List workspace files matching a glob pattern (node_modules is skipped)",
	}, instrument(s, "list_files", s.listFiles))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_project",
		Description: "Analyze the workspace: structure, VCS info and metrics, plus optional files, dependencies and findings",
	}, instrument(s, "analyze_project", s.analyzeProject))
}

// instrument wraps a tool handler with metrics and failure logging.
func instrument[In, Out any](s *Server, name string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, name)
		res, out, err := h(ctx, req, in)
		s.metrics.DecrementActive(ctx, name)
		s.metrics.RecordInvocation(ctx, name, time.Since(start), err)
		if err != nil {
			s.logger.Debug("tool call failed", zap.String("tool", name), zap.Error(err))
		}
		return res, out, err
	}
}

func (s *Server) readFile(_ context.Context, _ *mcp.CallToolRequest, args readFileInput) (*mcp.CallToolResult, readFileOutput, error) {
	abs, err := sanitize.ResolveWithin(s.root, args.Path)
	if err != nil {
		return nil, readFileOutput{}, err
	}
	content, err := fileops.Read(abs)
	if err != nil {
		return nil, readFileOutput{}, err
	}
	return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: content.Content}},
		}, readFileOutput{
			Path:     args.Path,
			Content:  content.Content,
			Language: content.Language,
		}, nil
}

func (s *Server) writeFile(_ context.Context, _ *mcp.CallToolRequest, args writeFileInput) (*mcp.CallToolResult, writeFileOutput, error) {
	abs, err := sanitize.ResolveWithin(s.root, args.Path)
	if err != nil {
		return nil, writeFileOutput{}, err
	}
	if err := fileops.WriteAll(abs, args.Content); err != nil {
		return nil, writeFileOutput{}, err
	}

	s.logger.Info("workspace file written", zap.String("path", args.Path), zap.Int("bytes", len(args.Content)))
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Wrote %d bytes to %s", len(args.Content), args.Path)},
		},
	}, writeFileOutput{Path: args.Path, Bytes: len(args.Content)}, nil
}

func (s *Server) listFiles(ctx context.Context, _ *mcp.CallToolRequest, args listFilesInput) (*mcp.CallToolResult, listFilesOutput, error) {
	pattern := args.Pattern
	if pattern == "" {
		pattern = DefaultListPattern
	}
	if err := sanitize.ValidateGlobPattern(pattern); err != nil {
		return nil, listFilesOutput{}, err
	}

	files, truncated, err := listWorkspace(ctx, s.root, pattern)
	if err != nil {
		return nil, listFilesOutput{}, err
	}

	return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(files, "\n")}},
		}, listFilesOutput{
			Pattern:   pattern,
			Files:     files,
			Count:     len(files),
			Truncated: truncated,
		}, nil
}

// listWorkspace globs files under root, pruning node_modules at any depth.
// The result is never nil.
func listWorkspace(ctx context.Context, root, pattern string) ([]string, bool, error) {
	files := []string{}
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == listExcludedDir {
				return fs.SkipDir
			}
			return nil
		}
		if inExcludedDir(p) {
			return nil
		}
		if len(files) == MaxListedFiles {
			return errListLimit
		}
		files = append(files, p)
		return nil
	}, doublestar.WithNoFollow())

	truncated := errors.Is(err, errListLimit)
	if err != nil && !truncated {
		return nil, false, fmt.Errorf("listing %q: %w", pattern, err)
	}
	sort.Strings(files)
	return files, truncated, nil
}

func inExcludedDir(p string) bool {
	segments := strings.Split(p, "/")
	for _, seg := range segments[:len(segments)-1] {
		if seg == listExcludedDir {
			return true
		}
	}
	return false
}

// analyzeProject returns the analysis as JSON text only. Analysis marshals
// through a custom encoder, so no output schema is derived for it.
func (s *Server) analyzeProject(ctx context.Context, _ *mcp.CallToolRequest, args analyzeProjectInput) (*mcp.CallToolResult, any, error) {
	result, err := s.analyzer.Analyze(ctx, analysis.Request{
		Path:                s.root,
		IncludeFiles:        args.IncludeFiles,
		IncludeDependencies: args.IncludeDependencies,
		IncludeErrors:       args.IncludeErrors,
	})
	if err != nil {
		return nil, nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding analysis: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil, nil
}
