package vcs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// EmbeddedBackend reads repositories in-process with go-git, for hosts
// without a git binary. go-git calls are not cancellable, so the context
// is only checked before each query.
type EmbeddedBackend struct{}

// NewEmbeddedBackend creates the go-git backend.
func NewEmbeddedBackend() *EmbeddedBackend {
	return &EmbeddedBackend{}
}

func open(ctx context.Context, root string) (*git.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return repo, nil
}

// Branch returns the short name HEAD points at, including an unborn branch.
// A detached HEAD yields an empty name.
func (b *EmbeddedBackend) Branch(ctx context.Context, root string) (string, error) {
	repo, err := open(ctx, root)
	if err != nil {
		return "", err
	}
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "", nil
}

// LastCommit formats HEAD as "<short hash> - <subject> (<author>, <age>)".
func (b *EmbeddedBackend) LastCommit(ctx context.Context, root string) (string, error) {
	repo, err := open(ctx, root)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("reading commit: %w", err)
	}
	subject, _, _ := strings.Cut(commit.Message, "\n")
	return fmt.Sprintf("%s - %s (%s, %s)",
		head.Hash().String()[:7],
		strings.TrimSpace(subject),
		commit.Author.Name,
		humanize.Time(commit.Author.When),
	), nil
}

// Status renders the worktree status in porcelain form, sorted by path.
func (b *EmbeddedBackend) Status(ctx context.Context, root string) (string, error) {
	repo, err := open(ctx, root)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("reading status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for p, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	lines := make([]string, len(paths))
	for i, p := range paths {
		fs := status[p]
		lines[i] = fmt.Sprintf("%c%c %s", fs.Staging, fs.Worktree, p)
	}
	return strings.Join(lines, "\n"), nil
}

// Remotes lists remotes in "git remote -v" form, sorted by name.
func (b *EmbeddedBackend) Remotes(ctx context.Context, root string) ([]string, error) {
	repo, err := open(ctx, root)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("listing remotes: %w", err)
	}
	sort.Slice(remotes, func(i, j int) bool {
		return remotes[i].Config().Name < remotes[j].Config().Name
	})

	lines := []string{}
	for _, r := range remotes {
		cfg := r.Config()
		if len(cfg.URLs) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s\t%s (fetch)", cfg.Name, cfg.URLs[0]))
		for _, u := range cfg.URLs {
			lines = append(lines, fmt.Sprintf("%s\t%s (push)", cfg.Name, u))
		}
	}
	return lines, nil
}
