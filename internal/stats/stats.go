// Package stats aggregates size and complexity metrics over sampled files.
package stats

import (
	"sort"
	"strings"

	"github.com/fyrsmithlabs/projectlens/internal/scan"
)

// Complexity tiers.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

const (
	// LargeFileBytes is the size a file must exceed to be ranked.
	LargeFileBytes = 1000
	// MaxLargestFiles bounds LargestFiles.
	MaxLargestFiles = 10
)

// LargeFile is one ranked entry.
type LargeFile struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Lines int    `json:"lines"`
}

// Metrics summarize one file set.
type Metrics struct {
	TotalFiles           int            `json:"totalFiles"`
	TotalLines           int            `json:"totalLines"`
	LanguageDistribution map[string]int `json:"languageDistribution"`
	LargestFiles         []LargeFile    `json:"largestFiles"`
	Complexity           string         `json:"complexity"`
}

// Aggregate computes metrics from files. Line counts come from the retained,
// possibly truncated, content.
func Aggregate(files []scan.FileRecord) Metrics {
	m := Metrics{
		TotalFiles:           len(files),
		LanguageDistribution: make(map[string]int),
		LargestFiles:         []LargeFile{},
	}

	for _, f := range files {
		lines := strings.Count(f.Content, "\n") + 1
		m.TotalLines += lines
		m.LanguageDistribution[f.Language]++
		if f.Size > LargeFileBytes {
			m.LargestFiles = append(m.LargestFiles, LargeFile{Path: f.Path, Size: f.Size, Lines: lines})
		}
	}

	sort.SliceStable(m.LargestFiles, func(i, j int) bool {
		return m.LargestFiles[i].Size > m.LargestFiles[j].Size
	})
	if len(m.LargestFiles) > MaxLargestFiles {
		m.LargestFiles = m.LargestFiles[:MaxLargestFiles]
	}

	m.Complexity = Tier(m.TotalFiles, m.TotalLines)
	return m
}

// Tier classifies a project by file and line totals.
func Tier(files, lines int) string {
	switch {
	case files > 100 || lines > 10000:
		return ComplexityHigh
	case files > 50 || lines > 5000:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}
