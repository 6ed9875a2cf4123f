// Package lint runs line-oriented heuristic checks over sampled files.
//
// The checks are regex and substring based with no parsing or scope
// analysis; false positives are expected.
package lint

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/projectlens/internal/language"
	"github.com/fyrsmithlabs/projectlens/internal/scan"
)

// MaxFiles is the number of leading files inspected by Detect.
const MaxFiles = 50

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Finding kinds.
const (
	KindCodeSmell      = "code_smell"
	KindUnusedVariable = "unused_variable"
	KindUnusedImport   = "unused_import"
	KindEmptyFunction  = "empty_function"
	KindSyntaxError    = "syntax_error"
)

// Finding is one heuristic result. Line is 1-based; Column is a 0-based
// byte offset when the check can locate one.
type Finding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   *int   `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
}

type detector func(f scan.FileRecord) []Finding

func detectorFor(lang string) detector {
	switch {
	case language.IsJavaScriptFamily(lang):
		return checkJS
	case lang == language.Python:
		return checkPython
	case lang == language.JSON:
		return checkJSON
	}
	return nil
}

var (
	declPattern   = regexp.MustCompile(`^(\s*)(let|const|var)\s+(\w+)`)
	importPattern = regexp.MustCompile(`^import\s+(\w+)`)
)

// Detect checks the first MaxFiles files. Findings keep file order, then
// line order within a file. Languages without a detector yield nothing.
func Detect(files []scan.FileRecord) []Finding {
	findings := []Finding{}
	for i, f := range files {
		if i == MaxFiles {
			break
		}
		if check := detectorFor(f.Language); check != nil {
			findings = append(findings, check(f)...)
		}
	}
	return findings
}

func checkJS(f scan.FileRecord) []Finding {
	var out []Finding
	lines := strings.Split(f.Content, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "console.log"); idx >= 0 && !strings.Contains(line, "//") {
			out = append(out, Finding{
				File:     f.Path,
				Line:     i + 1,
				Column:   column(idx),
				Message:  "console.log detected - consider removing it in production",
				Severity: SeverityWarning,
				Kind:     KindCodeSmell,
			})
		}

		if m := declPattern.FindStringSubmatchIndex(line); m != nil {
			name := line[m[6]:m[7]]
			if !usedLater(lines, i, name) {
				out = append(out, Finding{
					File:     f.Path,
					Line:     i + 1,
					Column:   column(m[0]),
					Message:  fmt.Sprintf("Variable '%s' is defined but never used", name),
					Severity: SeverityWarning,
					Kind:     KindUnusedVariable,
				})
			}
		}

		if strings.TrimSpace(line) == "function" ||
			(strings.Contains(line, "function") && strings.Contains(line, "{}")) {
			out = append(out, Finding{
				File:     f.Path,
				Line:     i + 1,
				Message:  "Empty function detected",
				Severity: SeverityInfo,
				Kind:     KindEmptyFunction,
			})
		}
	}
	return out
}

func checkPython(f scan.FileRecord) []Finding {
	var out []Finding
	lines := strings.Split(f.Content, "\n")
	for i, line := range lines {
		if m := importPattern.FindStringSubmatch(line); m != nil && !usedLater(lines, i, m[1]) {
			out = append(out, Finding{
				File:     f.Path,
				Line:     i + 1,
				Message:  fmt.Sprintf("Import '%s' is not used", m[1]),
				Severity: SeverityWarning,
				Kind:     KindUnusedImport,
			})
		}

		if strings.Contains(line, "print(") && !strings.Contains(line, "#") {
			out = append(out, Finding{
				File:     f.Path,
				Line:     i + 1,
				Message:  "print() detected - consider using logging",
				Severity: SeverityInfo,
				Kind:     KindCodeSmell,
			})
		}
	}
	return out
}

// checkJSON parses the retained content as-is, so a truncated sample of a
// large file reports a syntax error.
func checkJSON(f scan.FileRecord) []Finding {
	var v any
	if err := json.Unmarshal([]byte(f.Content), &v); err != nil {
		return []Finding{{
			File:     f.Path,
			Line:     1,
			Message:  "Invalid JSON: " + err.Error(),
			Severity: SeverityError,
			Kind:     KindSyntaxError,
		}}
	}
	return nil
}

// usedLater reports whether name occurs anywhere after line i.
func usedLater(lines []string, i int, name string) bool {
	for _, l := range lines[i+1:] {
		if strings.Contains(l, name) {
			return true
		}
	}
	return false
}

func column(c int) *int { return &c }
