package lint

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/projectlens/internal/language"
	"github.com/fyrsmithlabs/projectlens/internal/scan"
)

func record(path, lang, content string) scan.FileRecord {
	return scan.FileRecord{Path: path, Language: lang, Content: content, Size: int64(len(content))}
}

func kinds(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = fmt.Sprintf("%d:%s", f.Line, f.Kind)
	}
	return out
}

func TestDetect_JavaScript(t *testing.T) {
	src := strings.Join([]string{
		`const used = 1`,
		`let unused = 2`,
		`console.log(used)`,
		`  console.log("x") // debug`,
		`function noop() {}`,
		`function`,
		`var later = 3`,
		`export default later`,
	}, "\n")

	got := Detect([]scan.FileRecord{record("app.js", language.JavaScript, src)})

	assert.Equal(t, []string{
		"2:unused_variable",
		"3:code_smell",
		"5:empty_function",
		"6:empty_function",
	}, kinds(got))

	require.NotNil(t, got[0].Column)
	assert.Equal(t, 0, *got[0].Column)
	assert.Equal(t, "Variable 'unused' is defined but never used", got[0].Message)
	assert.Equal(t, SeverityWarning, got[0].Severity)

	require.NotNil(t, got[1].Column)
	assert.Equal(t, 0, *got[1].Column)
	assert.Equal(t, SeverityInfo, got[2].Severity)
	assert.Nil(t, got[2].Column)
}

func TestDetect_ConsoleLogColumn(t *testing.T) {
	got := Detect([]scan.FileRecord{record("a.ts", language.TypeScript, `if (x) { console.log(x) }`)})
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Column)
	assert.Equal(t, 9, *got[0].Column)
}

func TestDetect_ReactVariantsUseJSChecks(t *testing.T) {
	for _, lang := range []string{language.JavaScriptReact, language.TypeScriptReact} {
		got := Detect([]scan.FileRecord{record("c", lang, `console.log(1)`)})
		assert.Len(t, got, 1, lang)
	}
}

func TestDetect_Python(t *testing.T) {
	src := strings.Join([]string{
		`import os`,
		`import sys`,
		`print("hi")`,
		`print(sys.argv)  # debug`,
		`from json import loads`,
	}, "\n")

	got := Detect([]scan.FileRecord{record("main.py", language.Python, src)})
	assert.Equal(t, []string{"1:unused_import", "3:code_smell"}, kinds(got))
	assert.Equal(t, "Import 'os' is not used", got[0].Message)
	assert.Equal(t, SeverityInfo, got[1].Severity)
}

func TestDetect_InvalidJSON(t *testing.T) {
	got := Detect([]scan.FileRecord{record("bad.json", language.JSON, `{"a": }`)})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, SeverityError, got[0].Severity)
	assert.Equal(t, KindSyntaxError, got[0].Kind)
	assert.True(t, strings.HasPrefix(got[0].Message, "Invalid JSON: "))
	assert.Contains(t, got[0].Message, "invalid character")
}

func TestDetect_ValidJSON(t *testing.T) {
	got := Detect([]scan.FileRecord{
		record("ok.json", language.JSON, `{"a": [1, 2]}`),
		record("note.json", language.JSON, `"ends with `+scan.TruncationMarker+`"`),
	})
	assert.Empty(t, got)
}

func TestDetect_TruncatedJSONIsParsed(t *testing.T) {
	big := `{"a": [` + strings.Repeat("1, ", 1000) + `}`
	content := scan.Truncate(big, 2000)
	require.True(t, strings.HasSuffix(content, scan.TruncationMarker))

	f := record("big.json", language.JSON, content)
	f.Size = int64(len(big))
	got := Detect([]scan.FileRecord{f})

	require.Len(t, got, 1)
	assert.Equal(t, "big.json", got[0].File)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, SeverityError, got[0].Severity)
	assert.Equal(t, KindSyntaxError, got[0].Kind)
}

func TestDetect_OtherLanguagesIgnored(t *testing.T) {
	got := Detect([]scan.FileRecord{
		record("main.go", "go", `var x = 1 // console.log`),
		record("README.md", "markdown", "console.log"),
	})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetect_CapsInputFiles(t *testing.T) {
	files := make([]scan.FileRecord, MaxFiles+10)
	for i := range files {
		files[i] = record(fmt.Sprintf("f%d.js", i), language.JavaScript, `console.log(1)`)
	}

	got := Detect(files)
	assert.Len(t, got, MaxFiles)
	assert.Equal(t, fmt.Sprintf("f%d.js", MaxFiles-1), got[len(got)-1].File)
}

func TestFinding_JSON(t *testing.T) {
	got := Detect([]scan.FileRecord{record("a.js", language.JavaScript, "console.log(1)\nfunction f() {}")})
	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"file":"a.js","line":1,"column":0,"message":"console.log detected - consider removing it in production","severity":"warning","kind":"code_smell"},
		{"file":"a.js","line":2,"message":"Empty function detected","severity":"info","kind":"empty_function"}
	]`, string(data))
}
