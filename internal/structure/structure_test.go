package structure

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

// chainLength returns the longest run of nested children maps below tree.
func chainLength(tree Tree) int {
	longest := 0
	for _, n := range tree {
		if n.Children == nil {
			continue
		}
		if l := 1 + chainLength(n.Children); l > longest {
			longest = l
		}
	}
	return longest
}

func TestBuild_DepthCap(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a/b/c/d/e/deep.txt", "x")
	mkfile(t, root, "top.txt", "hello")

	tree := Build(root, DefaultMaxDepth)
	require.NotNil(t, tree)

	a := tree["a"]
	require.NotNil(t, a)
	assert.Equal(t, KindDirectory, a.Kind)
	b := a.Children["b"]
	require.NotNil(t, b)
	c := b.Children["c"]
	require.NotNil(t, c)
	assert.Equal(t, KindDirectory, c.Kind)
	assert.Nil(t, c.Children, "directory at the cap has no children")

	assert.LessOrEqual(t, chainLength(tree), DefaultMaxDepth)

	top := tree["top.txt"]
	require.NotNil(t, top)
	assert.Equal(t, KindFile, top.Kind)
	assert.Equal(t, int64(5), top.Size)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, top.Modified)
}

func TestBuild_JSONShape(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "src/index.js", "")
	mkfile(t, root, "a/b/c/x.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0755))

	data, err := json.Marshal(Build(root, 3))
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, map[string]any{}, got["empty"]["children"])

	src := got["src"]["children"].(map[string]any)
	index := src["index.js"].(map[string]any)
	assert.Equal(t, "file", index["kind"])
	assert.NotContains(t, index, "type")
	assert.Equal(t, float64(0), index["size"], "zero-byte files still report size")
	assert.NotContains(t, index, "children")

	c := got["a"]["children"].(map[string]any)["b"].(map[string]any)["children"].(map[string]any)["c"].(map[string]any)
	assert.Equal(t, map[string]any{"kind": "directory"}, c)
}

func TestBuild_ExcludesNoiseDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"node_modules", ".git", "dist", "build", ".vscode"} {
		mkfile(t, root, dir+"/file.txt", "x")
		mkfile(t, root, "nested/"+dir+"/file.txt", "x")
	}
	mkfile(t, root, "distribution/file.txt", "x")

	tree := Build(root, 3)
	assert.Len(t, tree, 2)
	assert.Contains(t, tree, "nested")
	assert.Contains(t, tree, "distribution")
	assert.Empty(t, tree["nested"].Children)
}

func TestBuild_UnreadableRoot(t *testing.T) {
	assert.Nil(t, Build(filepath.Join(t.TempDir(), "missing"), 3))

	data, err := json.Marshal(map[string]any{"root": Build(filepath.Join(t.TempDir(), "missing"), 3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"root": null}`, string(data))
}

func TestBuild_NonPositiveDepth(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.txt", "x")
	assert.Nil(t, Build(root, 0))
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded(".vscode"))
	assert.False(t, Excluded(".idea"))
	assert.False(t, Excluded("builds"))
}
