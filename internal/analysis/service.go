// Package analysis assembles the project analysis payload from the scan,
// structure, dependency, lint, VCS and metrics components.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/fyrsmithlabs/projectlens/internal/deps"
	"github.com/fyrsmithlabs/projectlens/internal/ignore"
	"github.com/fyrsmithlabs/projectlens/internal/lint"
	"github.com/fyrsmithlabs/projectlens/internal/scan"
	"github.com/fyrsmithlabs/projectlens/internal/stats"
	"github.com/fyrsmithlabs/projectlens/internal/structure"
	"github.com/fyrsmithlabs/projectlens/internal/vcs"
)

const instrumentationName = "github.com/fyrsmithlabs/projectlens/internal/analysis"

// Component names used in spans and ComponentError.
const (
	ComponentFiles        = "files"
	ComponentStructure    = "structure"
	ComponentErrors       = "errors"
	ComponentDependencies = "dependencies"
	ComponentGitInfo      = "gitInfo"
	ComponentMetrics      = "metrics"
	ComponentIgnore       = "ignore"
)

// Request selects the optional components of an analysis.
type Request struct {
	Path                string `json:"path"`
	IncludeFiles        bool   `json:"includeFiles"`
	IncludeDependencies bool   `json:"includeDependencies"`
	IncludeErrors       bool   `json:"includeErrors"`
}

// Structure wraps the directory tree; Root is nil when the root could not
// be listed.
type Structure struct {
	Root structure.Tree `json:"root"`
}

// Analysis is the assembled payload. All six fields are always serialized.
type Analysis struct {
	Files        []scan.FileRecord
	Structure    Structure
	Errors       []lint.Finding
	Dependencies *deps.Set
	GitInfo      vcs.Info
	Metrics      stats.Metrics

	degraded []*ComponentError
}

// Degraded returns the component failures absorbed into empty fields.
func (a *Analysis) Degraded() []*ComponentError {
	out := make([]*ComponentError, len(a.degraded))
	copy(out, a.degraded)
	return out
}

// MarshalJSON fills unset fields with their empty forms.
func (a Analysis) MarshalJSON() ([]byte, error) {
	var depsOut any = struct{}{}
	if a.Dependencies != nil {
		depsOut = a.Dependencies
	}
	files := a.Files
	if files == nil {
		files = []scan.FileRecord{}
	}
	findings := a.Errors
	if findings == nil {
		findings = []lint.Finding{}
	}
	gitInfo := a.GitInfo
	if gitInfo.Remotes == nil {
		gitInfo.Remotes = []string{}
	}
	return json.Marshal(struct {
		Files        []scan.FileRecord `json:"files"`
		Structure    Structure         `json:"structure"`
		Errors       []lint.Finding    `json:"errors"`
		Dependencies any               `json:"dependencies"`
		GitInfo      vcs.Info          `json:"gitInfo"`
		Metrics      stats.Metrics     `json:"metrics"`
	}{files, a.Structure, findings, depsOut, gitInfo, a.Metrics})
}

// GitCollector reports VCS metadata for a directory.
type GitCollector interface {
	Collect(ctx context.Context, root string) vcs.Info
}

// Service runs analyses. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	cfg    config.ScanConfig
	git    GitCollector
	logger *zap.Logger
	tracer trace.Tracer
}

// NewService creates an analysis service.
func NewService(cfg config.ScanConfig, git GitCollector, logger *zap.Logger) (*Service, error) {
	if git == nil {
		return nil, errors.New("git collector is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:    cfg,
		git:    git,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}, nil
}

// Analyze validates req.Path and runs the requested components in parallel.
// Component failures degrade their field; only an invalid path or a
// cancelled context fails the call.
func (s *Service) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.analyze")
	defer span.End()

	span.SetAttributes(
		attribute.String("path", req.Path),
		attribute.Bool("include_files", req.IncludeFiles),
		attribute.Bool("include_dependencies", req.IncludeDependencies),
		attribute.Bool("include_errors", req.IncludeErrors),
	)

	root, err := ValidatePath(req.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	a := &Analysis{}
	var mu sync.Mutex
	degrade := func(component string, err error) {
		kind := KindOf(err)
		var me *deps.ManifestError
		if kind == KindIO && errors.As(err, &me) {
			kind = KindParse
		}
		mu.Lock()
		a.degraded = append(a.degraded, &ComponentError{Component: component, Kind: kind, Err: err})
		mu.Unlock()
		s.logger.Warn("analysis component degraded",
			zap.String("component", component),
			zap.String("kind", string(kind)),
			zap.String("path", root),
			zap.Error(err),
		)
	}

	scanner := scan.NewScanner(s.scanOptions(root, degrade), s.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(guard(ComponentStructure, degrade, func() error {
		_, sp := s.tracer.Start(gctx, "analysis."+ComponentStructure)
		defer sp.End()
		a.Structure.Root = structure.Build(root, s.cfg.StructureDepth)
		if a.Structure.Root == nil {
			err := fmt.Errorf("listing %s failed", root)
			recordSpanError(sp, err)
			degrade(ComponentStructure, err)
		}
		return nil
	}))

	g.Go(guard(ComponentGitInfo, degrade, func() error {
		cctx, sp := s.tracer.Start(gctx, "analysis."+ComponentGitInfo)
		defer sp.End()
		a.GitInfo = s.git.Collect(cctx, root)
		sp.SetAttributes(attribute.Bool("is_repository", a.GitInfo.IsRepository))
		return nil
	}))

	g.Go(guard(ComponentMetrics, degrade, func() error {
		cctx, sp := s.tracer.Start(gctx, "analysis."+ComponentMetrics)
		defer sp.End()
		files, err := scanner.Scan(cctx, root, s.cfg.MetricsMaxFiles)
		if err != nil {
			recordSpanError(sp, err)
			degrade(ComponentMetrics, err)
		}
		a.Metrics = stats.Aggregate(files)
		return nil
	}))

	if req.IncludeFiles {
		g.Go(guard(ComponentFiles, degrade, func() error {
			cctx, sp := s.tracer.Start(gctx, "analysis."+ComponentFiles)
			defer sp.End()
			files, err := scanner.Scan(cctx, root, s.cfg.MaxFilesPerScan)
			if err != nil {
				recordSpanError(sp, err)
				degrade(ComponentFiles, err)
				return nil
			}
			sp.SetAttributes(attribute.Int("files", len(files)))
			a.Files = files
			return nil
		}))
	}

	if req.IncludeDependencies {
		g.Go(guard(ComponentDependencies, degrade, func() error {
			_, sp := s.tracer.Start(gctx, "analysis."+ComponentDependencies)
			defer sp.End()
			set, errs := deps.Read(root)
			for _, err := range errs {
				recordSpanError(sp, err)
				degrade(ComponentDependencies, err)
			}
			a.Dependencies = &set
			return nil
		}))
	}

	if req.IncludeErrors {
		g.Go(guard(ComponentErrors, degrade, func() error {
			cctx, sp := s.tracer.Start(gctx, "analysis."+ComponentErrors)
			defer sp.End()
			files, err := scanner.Scan(cctx, root, s.cfg.ErrorsMaxFiles)
			if err != nil {
				recordSpanError(sp, err)
				degrade(ComponentErrors, err)
			}
			a.Errors = lint.Detect(files)
			sp.SetAttributes(attribute.Int("findings", len(a.Errors)))
			return nil
		}))
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("degraded", len(a.degraded)))
	return a, nil
}

// scanOptions builds walker options, adding ignore-file patterns when enabled.
func (s *Service) scanOptions(root string, degrade func(string, error)) scan.Options {
	opts := scan.Options{
		MaxFileBytes:    s.cfg.MaxFileBytes,
		MaxContentChars: s.cfg.MaxContentChars,
		MaxDepth:        s.cfg.MaxWalkDepth,
	}
	if !s.cfg.RespectGitignore {
		return opts
	}

	patterns, err := ignore.NewParser(ignore.DefaultFiles, nil).ParseProject(root)
	if err != nil {
		degrade(ComponentIgnore, err)
		return opts
	}
	m, rejected := scan.DefaultMatcher().WithPathPatterns(patterns)
	if len(rejected) > 0 {
		s.logger.Debug("ignoring invalid ignore-file patterns", zap.Strings("patterns", rejected))
	}
	opts.Matcher = m
	return opts
}

// guard turns a panic in a component into a degraded field.
func guard(component string, degrade func(string, error), fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				degrade(component, fmt.Errorf("panic: %v", r))
			}
		}()
		return fn()
	}
}

// ValidatePath resolves path to an absolute, cleaned directory.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", &ComponentError{Kind: KindInvalidPath, Err: ErrPathRequired}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ComponentError{Kind: KindInvalidPath, Err: fmt.Errorf("resolving path: %w", err)}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &ComponentError{Kind: KindInvalidPath, Err: fmt.Errorf("path does not exist: %s", abs)}
		}
		return "", &ComponentError{Kind: KindInvalidPath, Err: fmt.Errorf("stat path: %w", err)}
	}
	if !info.IsDir() {
		return "", &ComponentError{Kind: KindInvalidPath, Err: fmt.Errorf("path must be a directory: %s", abs)}
	}
	return abs, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
