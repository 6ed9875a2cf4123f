// Package command runs one shell command with a wall-clock bound.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectlens/internal/config"
)

// DefaultTimeout bounds a command when none is configured.
const DefaultTimeout = 30 * time.Second

// waitDelay bounds how long Wait keeps reading pipes held open by
// descendants after the shell exits or is killed.
const waitDelay = 2 * time.Second

// Result is the outcome of one command.
type Result struct {
	Command string `json:"command"`
	Output  string `json:"output"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Runner executes shell commands.
type Runner struct {
	shell   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a runner from cfg. An empty shell uses the platform
// default and a non-positive timeout uses DefaultTimeout.
func NewRunner(cfg config.CommandConfig, logger *zap.Logger) *Runner {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{shell: cfg.Shell, timeout: timeout, logger: logger}
}

// Run executes command through the shell in dir, or the process working
// directory when dir is empty. Failures, including timeouts, are reported in
// the Result; on timeout the whole process group is killed.
func (r *Runner) Run(ctx context.Context, command, dir string) Result {
	res := Result{Command: command}
	if command == "" {
		res.Error = "command is required"
		res.Output = res.Error
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shellPath(r.shell), shellArgs(command)...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		res.Output = stdout.String()
		res.Success = true
		r.logger.Debug("command finished", zap.String("dir", dir), zap.Duration("elapsed", elapsed))
		return res
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Error = fmt.Sprintf("command timed out after %s", r.timeout)
	case ctx.Err() != nil:
		res.Error = fmt.Sprintf("command cancelled: %v", ctx.Err())
	default:
		res.Error = fmt.Sprintf("command failed: %v", err)
	}
	res.Output = stdout.String() + stderr.String()
	if res.Output == "" {
		res.Output = res.Error
	}

	r.logger.Info("command failed",
		zap.String("dir", dir),
		zap.Duration("elapsed", elapsed),
		zap.String("error", res.Error),
	)
	return res
}

// Timeout returns the configured bound.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}
