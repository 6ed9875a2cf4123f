// Package sanitize confines untrusted paths and glob patterns to a workspace
// root.
package sanitize

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validation errors for security checks.
var (
	// ErrPathTraversal indicates a path resolves outside the workspace root.
	ErrPathTraversal = errors.New("path escapes workspace root")

	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrInvalidPattern indicates a glob pattern is malformed or unsafe.
	ErrInvalidPattern = errors.New("invalid or dangerous pattern")
)

// dangerousPatternChars are shell metacharacters that never belong in a
// file glob. Braces stay allowed for doublestar alternation.
var dangerousPatternChars = regexp.MustCompile("[;|$`<>&()]|\\*{3,}")

// ResolveWithin resolves p against root and returns the cleaned absolute
// path. Relative paths are joined to root; absolute paths must already lie
// under it. Symlinks in the existing part of the path are followed, so a link
// pointing out of the workspace is rejected too.
func ResolveWithin(root, p string) (string, error) {
	if p == "" {
		return "", ErrEmptyPath
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	if !within(absRoot, target) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, p)
	}

	realRoot, err := resolveExisting(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	realTarget, err := resolveExisting(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !within(realRoot, realTarget) {
		return "", fmt.Errorf("%w: %s links outside the workspace", ErrPathTraversal, p)
	}

	return target, nil
}

// within reports whether target is root or below it. Both must be clean and
// absolute. Only a whole ".." segment counts as escaping, so names like
// "..config" stay valid.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks on the longest existing prefix of p and
// re-appends the missing tail.
func resolveExisting(p string) (string, error) {
	cur := p
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}

// ValidateGlobPattern checks a slash-separated doublestar pattern that will
// be matched relative to the workspace root.
func ValidateGlobPattern(pattern string) error {
	if pattern == "" {
		return nil // callers substitute their default
	}

	if dangerousPatternChars.MatchString(pattern) {
		return fmt.Errorf("%w: contains dangerous characters", ErrInvalidPattern)
	}

	if path.IsAbs(pattern) || filepath.IsAbs(pattern) {
		return fmt.Errorf("%w: must be relative to the workspace", ErrInvalidPattern)
	}

	for _, seg := range strings.Split(pattern, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: contains path traversal", ErrInvalidPattern)
		}
	}

	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("%w: malformed glob", ErrInvalidPattern)
	}

	return nil
}
