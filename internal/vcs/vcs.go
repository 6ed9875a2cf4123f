// Package vcs reports read-only git metadata for a project directory.
//
// Collection goes through a Backend so the subprocess and pure-Go
// implementations are interchangeable, and tests can inject fakes.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/config"
)

// DetachedBranch is reported when the current branch cannot be determined.
const DetachedBranch = "HEAD"

// DefaultTimeout bounds each query.
const DefaultTimeout = 5 * time.Second

// ErrNotGitRepo indicates the directory has no .git entry.
var ErrNotGitRepo = errors.New("not a git repository")

// Info is the collected metadata. A zero Info with empty Remotes is the
// non-repository record.
type Info struct {
	IsRepository bool     `json:"isRepository"`
	Branch       string   `json:"branch"`
	LastCommit   string   `json:"lastCommit"`
	Status       string   `json:"status"`
	Remotes      []string `json:"remotes"`
}

// Empty returns the record reported for directories that are not repositories.
func Empty() Info {
	return Info{Remotes: []string{}}
}

// Backend answers the four metadata queries for a repository root.
type Backend interface {
	Branch(ctx context.Context, root string) (string, error)
	LastCommit(ctx context.Context, root string) (string, error)
	Status(ctx context.Context, root string) (string, error)
	Remotes(ctx context.Context, root string) ([]string, error)
}

// Collector gathers Info with a per-query timeout.
type Collector struct {
	backend Backend
	timeout time.Duration
	logger  *zap.Logger
}

// NewCollector creates a collector. A non-positive timeout uses DefaultTimeout.
func NewCollector(backend Backend, timeout time.Duration, logger *zap.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{backend: backend, timeout: timeout, logger: logger}
}

// NewFromConfig selects the backend named by cfg.Backend.
func NewFromConfig(cfg config.VCSConfig, logger *zap.Logger) (*Collector, error) {
	var backend Backend
	switch cfg.Backend {
	case config.VCSBackendCLI, "":
		backend = NewCLIBackend(&ExecRunner{Binary: cfg.Binary})
	case config.VCSBackendEmbedded:
		backend = NewEmbeddedBackend()
	default:
		return nil, fmt.Errorf("unknown vcs backend %q", cfg.Backend)
	}
	return NewCollector(backend, cfg.Timeout(), logger), nil
}

// IsRepository reports whether root has a .git entry. Worktrees and
// submodules use a .git file, which also counts.
func IsRepository(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// Collect returns metadata for root. Outside a repository it returns Empty
// without touching the backend. Each failing query degrades only its field.
func (c *Collector) Collect(ctx context.Context, root string) Info {
	if !IsRepository(root) {
		return Empty()
	}

	info := Empty()
	info.IsRepository = true

	if branch, err := query(ctx, c, root, "branch", c.backend.Branch); err == nil {
		info.Branch = branch
	} else {
		info.Branch = DetachedBranch
	}
	if commit, err := query(ctx, c, root, "last_commit", c.backend.LastCommit); err == nil {
		info.LastCommit = commit
	}
	if status, err := query(ctx, c, root, "status", c.backend.Status); err == nil {
		info.Status = status
	}
	if remotes, err := query(ctx, c, root, "remotes", c.backend.Remotes); err == nil && remotes != nil {
		info.Remotes = remotes
	}
	return info
}

func query[T any](ctx context.Context, c *Collector, root, name string, fn func(context.Context, string) (T, error)) (T, error) {
	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := fn(qctx, root)
	if err != nil {
		c.logger.Debug("vcs query failed",
			zap.String("query", name),
			zap.String("root", root),
			zap.Error(err),
		)
	}
	return v, err
}
