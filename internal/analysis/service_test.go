package analysis

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fyrsmithlabs/projectlens/internal/config"
	"github.com/fyrsmithlabs/projectlens/internal/lint"
	"github.com/fyrsmithlabs/projectlens/internal/stats"
	"github.com/fyrsmithlabs/projectlens/internal/vcs"
)

type countingRunner struct{ calls atomic.Int32 }

func (r *countingRunner) Run(context.Context, string, ...string) (string, error) {
	r.calls.Add(1)
	return "", nil
}

func newService(t *testing.T, cfg config.ScanConfig) (*Service, *countingRunner) {
	t.Helper()
	runner := &countingRunner{}
	svc, err := NewService(cfg, vcs.NewCollector(vcs.NewCLIBackend(runner), 0, nil), nil)
	require.NoError(t, err)
	return svc, runner
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func TestAnalyze_MainJSAndPackageJSON(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.js":      `console.log("hi")`,
		"package.json": `{"name": "demo", "dependencies": {"express": "^4.18.0"}}`,
	})
	svc, runner := newService(t, config.Default().Scan)

	a, err := svc.Analyze(context.Background(), Request{
		Path:                root,
		IncludeFiles:        true,
		IncludeDependencies: true,
		IncludeErrors:       true,
	})
	require.NoError(t, err)
	assert.Empty(t, a.Degraded())

	require.Len(t, a.Files, 2)
	assert.Equal(t, "main.js", a.Files[0].Path)
	assert.Equal(t, "javascript", a.Files[0].Language)

	require.NotNil(t, a.Dependencies)
	require.NotNil(t, a.Dependencies.Package)
	assert.Equal(t, map[string]string{"express": "^4.18.0"}, a.Dependencies.Package.Dependencies)

	require.Len(t, a.Errors, 1)
	assert.Equal(t, "main.js", a.Errors[0].File)
	assert.Equal(t, 1, a.Errors[0].Line)
	assert.Equal(t, lint.KindCodeSmell, a.Errors[0].Kind)

	assert.False(t, a.GitInfo.IsRepository)
	assert.Zero(t, runner.calls.Load())

	assert.Equal(t, 2, a.Metrics.TotalFiles)
	assert.Equal(t, stats.ComplexityLow, a.Metrics.Complexity)
	assert.Contains(t, a.Structure.Root, "main.js")
}

func TestAnalyze_PayloadShapeWithoutFlags(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": `console.log("hi")`})
	svc, _ := newService(t, config.Default().Scan)

	a, err := svc.Analyze(context.Background(), Request{Path: root})
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Len(t, payload, 6)
	assert.JSONEq(t, `[]`, string(payload["files"]))
	assert.JSONEq(t, `[]`, string(payload["errors"]))
	assert.JSONEq(t, `{}`, string(payload["dependencies"]))
	assert.JSONEq(t, `{"isRepository": false, "branch": "", "lastCommit": "", "status": "", "remotes": []}`,
		string(payload["gitInfo"]))

	var metrics stats.Metrics
	require.NoError(t, json.Unmarshal(payload["metrics"], &metrics))
	assert.Equal(t, 1, metrics.TotalFiles)

	var st struct {
		Root map[string]any `json:"root"`
	}
	require.NoError(t, json.Unmarshal(payload["structure"], &st))
	assert.Contains(t, st.Root, "main.js")
}

func TestAnalyze_InvalidPath(t *testing.T) {
	svc, _ := newService(t, config.Default().Scan)
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name string
		path string
		msg  string
	}{
		{"empty", "", "path is required"},
		{"missing", filepath.Join(t.TempDir(), "missing"), "path does not exist"},
		{"file", file, "path must be a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.Analyze(context.Background(), Request{Path: tt.path, IncludeFiles: true})
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Equal(t, KindInvalidPath, KindOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAnalyze_MalformedManifestDegrades(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"package.json":     `{"dependencies": `,
		"requirements.txt": "flask\n",
	})
	svc, _ := newService(t, config.Default().Scan)

	a, err := svc.Analyze(context.Background(), Request{Path: root, IncludeDependencies: true, IncludeErrors: true})
	require.NoError(t, err)

	require.NotNil(t, a.Dependencies)
	assert.Nil(t, a.Dependencies.Package)
	assert.Equal(t, []string{"flask"}, a.Dependencies.Requirements)

	degraded := a.Degraded()
	require.Len(t, degraded, 1)
	assert.Equal(t, ComponentDependencies, degraded[0].Component)
	assert.Equal(t, KindParse, degraded[0].Kind)

	require.Len(t, a.Errors, 1)
	assert.Equal(t, lint.KindSyntaxError, a.Errors[0].Kind)
	assert.Equal(t, "package.json", a.Errors[0].File)
}

type panickingGit struct{}

func (panickingGit) Collect(context.Context, string) vcs.Info {
	panic("corrupt packfile")
}

func TestAnalyze_ComponentPanicDegrades(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": `console.log("hi")`})
	svc, err := NewService(config.Default().Scan, panickingGit{}, nil)
	require.NoError(t, err)

	a, err := svc.Analyze(context.Background(), Request{Path: root, IncludeErrors: true})
	require.NoError(t, err)

	assert.False(t, a.GitInfo.IsRepository)
	assert.Equal(t, 1, a.Metrics.TotalFiles)
	require.Len(t, a.Errors, 1)

	degraded := a.Degraded()
	require.Len(t, degraded, 1)
	assert.Equal(t, ComponentGitInfo, degraded[0].Component)
	assert.ErrorContains(t, degraded[0].Err, "panic: corrupt packfile")

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"remotes":[]`)
}

func TestAnalyze_ScanCaps(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 12; i++ {
		files[filepath.Join("src", string(rune('a'+i))+".js")] = "console.log(1)"
	}
	writeTree(t, root, files)

	cfg := config.Default().Scan
	cfg.MaxFilesPerScan = 5
	cfg.ErrorsMaxFiles = 3
	cfg.MetricsMaxFiles = 10
	svc, _ := newService(t, cfg)

	a, err := svc.Analyze(context.Background(), Request{Path: root, IncludeFiles: true, IncludeErrors: true})
	require.NoError(t, err)
	assert.Len(t, a.Files, 5)
	assert.Len(t, a.Errors, 3)
	assert.Equal(t, 10, a.Metrics.TotalFiles)
}

func TestAnalyze_RespectGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":          "generated/\n*.tmp\n",
		"main.go":             "package main",
		"generated/api.go":    "package api",
		"pkg/cache/entry.tmp": "x",
	})

	cfg := config.Default().Scan
	svc, _ := newService(t, cfg)
	a, err := svc.Analyze(context.Background(), Request{Path: root, IncludeFiles: true})
	require.NoError(t, err)
	assert.Len(t, a.Files, 4)

	cfg.RespectGitignore = true
	svc, _ = newService(t, cfg)
	a, err = svc.Analyze(context.Background(), Request{Path: root, IncludeFiles: true})
	require.NoError(t, err)

	var got []string
	for _, f := range a.Files {
		got = append(got, f.Path)
	}
	assert.Equal(t, []string{".gitignore", "main.go"}, got)
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "1"})
	svc, _ := newService(t, config.Default().Scan)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, Request{Path: root, IncludeFiles: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.js": "let x = 1"})
	svc, _ := newService(t, config.Default().Scan)

	_, err := svc.Analyze(context.Background(), Request{Path: root, IncludeFiles: true, IncludeErrors: true})
	require.NoError(t, err)

	names := map[string]bool{}
	var parent string
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
		if s.Name() == "analysis.analyze" {
			parent = s.SpanContext().SpanID().String()
		}
	}
	for _, want := range []string{
		"analysis.analyze",
		"analysis.structure",
		"analysis.gitInfo",
		"analysis.metrics",
		"analysis.files",
		"analysis.errors",
	} {
		assert.True(t, names[want], "missing span %s", want)
	}
	assert.False(t, names["analysis.dependencies"])

	for _, s := range recorder.Ended() {
		if s.Name() != "analysis.analyze" {
			assert.Equal(t, parent, s.Parent().SpanID().String(), s.Name())
		}
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(os.ErrNotExist))
	assert.Equal(t, KindPermission, KindOf(os.ErrPermission))
	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindParse, KindOf(json.Unmarshal([]byte("{"), &struct{}{})))
	assert.Equal(t, KindIO, KindOf(assert.AnError))
	assert.Equal(t, KindInvalidPath, KindOf(&ComponentError{Kind: KindInvalidPath, Err: ErrPathRequired}))
}
