// Package scan walks a project tree and samples file contents under fixed
// resource bounds.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fyrsmithlabs/projectlens/internal/language"
	"go.uber.org/zap"
)

// TruncationMarker is appended to content cut at MaxContentChars.
const TruncationMarker = "...[truncated]"

// TimeLayout is the RFC 3339 millisecond UTC layout used for timestamps.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileRecord is one sampled file.
type FileRecord struct {
	Path         string `json:"path"`
	Content      string `json:"content"`
	Language     string `json:"language"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
}

// Options bound a scan.
type Options struct {
	// MaxFileBytes skips files whose size is >= the limit.
	MaxFileBytes int64
	// MaxContentChars truncates retained content, counted in characters.
	MaxContentChars int
	// MaxDepth stops descent below this many directory levels.
	MaxDepth int
	// Matcher prunes excluded paths. Nil means DefaultMatcher.
	Matcher *Matcher
}

// DefaultOptions returns the standard bounds.
func DefaultOptions() Options {
	return Options{
		MaxFileBytes:    50000,
		MaxContentChars: 2000,
		MaxDepth:        64,
	}
}

// Scanner samples files under a root directory.
type Scanner struct {
	opts   Options
	logger *zap.Logger
}

// NewScanner creates a scanner. Zero-valued options take their defaults.
func NewScanner(opts Options, logger *zap.Logger) *Scanner {
	def := DefaultOptions()
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = def.MaxFileBytes
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = def.MaxContentChars
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.Matcher == nil {
		opts.Matcher = DefaultMatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{opts: opts, logger: logger}
}

// entry is one pending item on the walk stack.
type entry struct {
	abs   string
	rel   string
	depth int
	info  fs.DirEntry
}

// Scan walks root depth-first in lexical order and returns at most maxFiles
// records. Unreadable entries below root are logged and skipped; only an
// unreadable root or a cancelled context fails the scan.
func (s *Scanner) Scan(ctx context.Context, root string, maxFiles int) ([]FileRecord, error) {
	if maxFiles <= 0 {
		return []FileRecord{}, nil
	}

	rootEntries, err := readDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading scan root: %w", err)
	}

	files := make([]FileRecord, 0, min(maxFiles, 64))
	stack := make([]entry, 0, len(rootEntries))
	stack = pushEntries(stack, root, "", 1, rootEntries)

	for len(stack) > 0 && len(files) < maxFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.opts.Matcher.Excluded(e.rel) {
			continue
		}

		info, err := statEntry(e)
		if err != nil {
			s.logger.Warn("skipping unreadable entry", zap.String("path", e.rel), zap.Error(err))
			continue
		}

		if info.IsDir() {
			if e.info.Type()&fs.ModeSymlink != 0 {
				// Symlinked directories are not followed.
				continue
			}
			if e.depth >= s.opts.MaxDepth {
				s.logger.Debug("walk depth limit reached", zap.String("path", e.rel), zap.Int("depth", e.depth))
				continue
			}
			children, err := readDir(e.abs)
			if err != nil {
				s.logger.Warn("skipping unreadable directory", zap.String("path", e.rel), zap.Error(err))
				continue
			}
			stack = pushEntries(stack, e.abs, e.rel, e.depth+1, children)
			continue
		}

		if !info.Mode().IsRegular() || info.Size() >= s.opts.MaxFileBytes {
			continue
		}

		rec, err := s.readRecord(e, info)
		if err != nil {
			s.logger.Warn("skipping unreadable file", zap.String("path", e.rel), zap.Error(err))
			continue
		}
		files = append(files, rec)
	}

	s.logger.Debug("scan complete",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("max_files", maxFiles),
	)
	return files, nil
}

func (s *Scanner) readRecord(e entry, info fs.FileInfo) (FileRecord, error) {
	data, err := os.ReadFile(e.abs)
	if err != nil {
		return FileRecord{}, err
	}
	return FileRecord{
		Path:         e.rel,
		Content:      Truncate(string(data), s.opts.MaxContentChars),
		Language:     language.Detect(e.info.Name()),
		Size:         info.Size(),
		LastModified: FormatTime(info.ModTime()),
	}, nil
}

// Truncate returns content limited to maxChars characters, with
// TruncationMarker appended when anything was cut. Invalid UTF-8 is replaced.
func Truncate(content string, maxChars int) string {
	content = strings.ToValidUTF8(content, "\uFFFD")
	if utf8.RuneCountInString(content) <= maxChars {
		return content
	}
	n := 0
	for i := range content {
		if n == maxChars {
			return content[:i] + TruncationMarker
		}
		n++
	}
	return content
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// pushEntries pushes children in reverse so they pop in lexical order.
func pushEntries(stack []entry, dirAbs, dirRel string, depth int, children []fs.DirEntry) []entry {
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		rel := c.Name()
		if dirRel != "" {
			rel = dirRel + "/" + c.Name()
		}
		stack = append(stack, entry{
			abs:   filepath.Join(dirAbs, c.Name()),
			rel:   rel,
			depth: depth,
			info:  c,
		})
	}
	return stack
}

func readDir(dir string) ([]fs.DirEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return os.ReadDir(dir)
}

// statEntry resolves symlinks so a linked file reports its target size.
func statEntry(e entry) (fs.FileInfo, error) {
	if e.info.Type()&fs.ModeSymlink != 0 {
		return os.Stat(e.abs)
	}
	return e.info.Info()
}
