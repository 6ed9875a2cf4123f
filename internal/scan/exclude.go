package scan

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Default exclusion rules. Segment patterns are matched against every
// component of a relative path; folded patterns against its lowercased form.
var (
	DefaultSegmentPatterns = []string{
		".git",
		"node_modules",
		"dist",
		"build",
		".env*",
		"*.log",
	}
	DefaultFoldedPatterns = []string{
		"*.{jpg,jpeg,png,gif,ico,svg,woff,woff2,ttf,eot}",
	}
)

// Matcher decides whether a relative path is excluded from a scan.
type Matcher struct {
	segment []string
	folded  []string
	path    []string
}

// NewMatcher validates and compiles a matcher. Path patterns are matched
// against the whole slash-separated relative path, e.g. "**/vendor/**".
func NewMatcher(segment, folded, path []string) (*Matcher, error) {
	for _, group := range [][]string{segment, folded, path} {
		for _, p := range group {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("invalid exclude pattern %q", p)
			}
		}
	}
	return &Matcher{
		segment: segment,
		folded:  folded,
		path:    path,
	}, nil
}

// DefaultMatcher returns the built-in exclusion rules.
func DefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultSegmentPatterns, DefaultFoldedPatterns, nil)
	if err != nil {
		panic(err)
	}
	return m
}

// WithPathPatterns returns a copy of m with extra whole-path patterns.
// Invalid patterns are dropped and returned.
func (m *Matcher) WithPathPatterns(patterns []string) (*Matcher, []string) {
	var rejected []string
	path := make([]string, 0, len(m.path)+len(patterns))
	path = append(path, m.path...)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			rejected = append(rejected, p)
			continue
		}
		path = append(path, p)
	}
	return &Matcher{segment: m.segment, folded: m.folded, path: path}, rejected
}

// Excluded reports whether rel, a slash-separated path relative to the scan
// root, matches any rule.
func (m *Matcher) Excluded(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if matchAny(m.segment, seg) || matchAny(m.folded, strings.ToLower(seg)) {
			return true
		}
	}
	return matchAny(m.path, rel)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, name) {
			return true
		}
	}
	return false
}
