package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes one read-only VCS subcommand in dir and returns stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary as a subprocess.
type ExecRunner struct {
	// Binary defaults to "git".
	Binary string
}

// Run implements Runner. Optional locks are disabled so status never
// rewrites the index.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0", "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", args[0], ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

// CLIBackend answers queries by running git through a Runner.
type CLIBackend struct {
	runner Runner
}

// NewCLIBackend creates a backend over runner.
func NewCLIBackend(runner Runner) *CLIBackend {
	return &CLIBackend{runner: runner}
}

func (b *CLIBackend) run(ctx context.Context, root string, args ...string) (string, error) {
	out, err := b.runner.Run(ctx, root, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Branch runs git branch --show-current.
func (b *CLIBackend) Branch(ctx context.Context, root string) (string, error) {
	return b.run(ctx, root, "branch", "--show-current")
}

// LastCommit runs git log -1 with a one-line summary format.
func (b *CLIBackend) LastCommit(ctx context.Context, root string) (string, error) {
	return b.run(ctx, root, "log", "-1", "--pretty=format:%h - %s (%an, %ar)")
}

// Status runs git status --porcelain.
func (b *CLIBackend) Status(ctx context.Context, root string) (string, error) {
	return b.run(ctx, root, "status", "--porcelain")
}

// Remotes runs git remote -v and returns its non-empty lines.
func (b *CLIBackend) Remotes(ctx context.Context, root string) ([]string, error) {
	out, err := b.run(ctx, root, "remote", "-v")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(s string) []string {
	lines := []string{}
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimRight(l, "\r"); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
