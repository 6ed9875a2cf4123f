package stats

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/projectlens/internal/scan"
)

func files(n int, lang string) []scan.FileRecord {
	out := make([]scan.FileRecord, n)
	for i := range out {
		out[i] = scan.FileRecord{Path: fmt.Sprintf("f%03d", i), Language: lang, Content: "x", Size: 1}
	}
	return out
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(nil)
	assert.Equal(t, 0, m.TotalFiles)
	assert.Equal(t, 0, m.TotalLines)
	assert.NotNil(t, m.LanguageDistribution)
	assert.NotNil(t, m.LargestFiles)
	assert.Equal(t, ComplexityLow, m.Complexity)
}

func TestAggregate_LinesAndDistribution(t *testing.T) {
	in := []scan.FileRecord{
		{Path: "a.js", Language: "javascript", Content: "a\nb\nc"},
		{Path: "b.js", Language: "javascript", Content: "a\n"},
		{Path: "c.py", Language: "python", Content: ""},
	}
	m := Aggregate(in)

	assert.Equal(t, 3, m.TotalFiles)
	assert.Equal(t, 3+2+1, m.TotalLines)
	assert.Equal(t, map[string]int{"javascript": 2, "python": 1}, m.LanguageDistribution)

	sum := 0
	for _, n := range m.LanguageDistribution {
		sum += n
	}
	assert.Equal(t, m.TotalFiles, sum)
}

func TestAggregate_LargestFiles(t *testing.T) {
	var in []scan.FileRecord
	for i := 0; i < 15; i++ {
		in = append(in, scan.FileRecord{
			Path:    fmt.Sprintf("big%02d", i),
			Size:    int64(1001 + i*100),
			Content: strings.Repeat("l\n", i),
		})
	}
	in = append(in, scan.FileRecord{Path: "exactly1000", Size: 1000})

	m := Aggregate(in)
	require.Len(t, m.LargestFiles, MaxLargestFiles)
	assert.Equal(t, "big14", m.LargestFiles[0].Path)
	assert.Equal(t, 15, m.LargestFiles[0].Lines)
	for i := 1; i < len(m.LargestFiles); i++ {
		assert.GreaterOrEqual(t, m.LargestFiles[i-1].Size, m.LargestFiles[i].Size)
	}
	for _, f := range m.LargestFiles {
		assert.NotEqual(t, "exactly1000", f.Path)
	}
}

func TestAggregate_ComplexityFileThresholds(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{50, ComplexityLow},
		{51, ComplexityMedium},
		{100, ComplexityMedium},
		{101, ComplexityHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(files(tt.n, "text")).Complexity)
		})
	}
}

func TestTier_LineThresholds(t *testing.T) {
	assert.Equal(t, ComplexityLow, Tier(1, 5000))
	assert.Equal(t, ComplexityMedium, Tier(1, 5001))
	assert.Equal(t, ComplexityMedium, Tier(1, 10000))
	assert.Equal(t, ComplexityHigh, Tier(1, 10001))
}
