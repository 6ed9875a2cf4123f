// Package structure mirrors a directory tree into a depth-capped nested map.
package structure

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/projectlens/internal/scan"
)

// DefaultMaxDepth is the number of directory levels listed below the root.
const DefaultMaxDepth = 3

// Node kinds.
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// excludedNames are skipped by exact entry name at every level.
var excludedNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".vscode":      true,
}

// Tree maps entry names to nodes.
type Tree map[string]*Node

// Node is one file or directory.
//
// Children is nil for files, for directories at the depth cap and for
// directories that could not be listed. An empty directory has a non-nil,
// empty Children map and serializes as "children": {}.
type Node struct {
	Kind     string
	Size     int64
	Modified string
	Children Tree
}

// MarshalJSON emits size and modified for files and children only when listed.
func (n *Node) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind     string `json:"kind"`
		Size     *int64 `json:"size,omitempty"`
		Modified string `json:"modified,omitempty"`
		Children *Tree  `json:"children,omitempty"`
	}
	w := wire{Kind: n.Kind}
	if n.Kind == KindFile {
		size := n.Size
		w.Size = &size
		w.Modified = n.Modified
	}
	if n.Children != nil {
		w.Children = &n.Children
	}
	return json.Marshal(w)
}

// Excluded reports whether an entry name is skipped by the builder.
func Excluded(name string) bool {
	return excludedNames[name]
}

// Build lists root down to maxDepth levels. It returns nil when root cannot
// be listed or maxDepth is not positive.
func Build(root string, maxDepth int) Tree {
	return build(root, maxDepth, 0)
}

func build(dir string, maxDepth, depth int) Tree {
	if depth >= maxDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	tree := make(Tree, len(entries))
	for _, e := range entries {
		if excludedNames[e.Name()] {
			continue
		}
		full := filepath.Join(dir, e.Name())
		// Stat follows symlinks; the depth cap bounds any link cycle.
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			tree[e.Name()] = &Node{
				Kind:     KindDirectory,
				Children: build(full, maxDepth, depth+1),
			}
			continue
		}
		tree[e.Name()] = &Node{
			Kind:     KindFile,
			Size:     info.Size(),
			Modified: scan.FormatTime(info.ModTime()),
		}
	}
	return tree
}
