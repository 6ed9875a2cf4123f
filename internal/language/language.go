// Package language maps file names to language tags.
package language

import (
	"path/filepath"
	"strings"
)

// Default is the tag for files no rule matches.
const Default = "text"

// Tags with dedicated detectors.
const (
	JavaScript      = "javascript"
	JavaScriptReact = "javascriptreact"
	TypeScript      = "typescript"
	TypeScriptReact = "typescriptreact"
	Python          = "python"
	JSON            = "json"
)

var byExtension = map[string]string{
	".js":         JavaScript,
	".mjs":        JavaScript,
	".cjs":        JavaScript,
	".jsx":        JavaScriptReact,
	".ts":         TypeScript,
	".tsx":        TypeScriptReact,
	".py":         Python,
	".java":       "java",
	".cpp":        "cpp",
	".cc":         "cpp",
	".cxx":        "cpp",
	".hpp":        "cpp",
	".c":          "c",
	".h":          "c",
	".cs":         "csharp",
	".php":        "php",
	".rb":         "ruby",
	".go":         "go",
	".rs":         "rust",
	".html":       "html",
	".htm":        "html",
	".css":        "css",
	".scss":       "scss",
	".sass":       "sass",
	".less":       "less",
	".json":       JSON,
	".xml":        "xml",
	".yaml":       "yaml",
	".yml":        "yaml",
	".toml":       "toml",
	".md":         "markdown",
	".sql":        "sql",
	".sh":         "shell",
	".bash":       "shell",
	".zsh":        "shell",
	".ps1":        "powershell",
	".dockerfile": "dockerfile",
	".r":          "r",
	".swift":      "swift",
	".kt":         "kotlin",
	".scala":      "scala",
	".dart":       "dart",
}

// byName takes precedence over byExtension.
var byName = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
	"rakefile":   "ruby",
	"gemfile":    "ruby",
}

// Detect returns the language tag for a file name or path. Matching is
// case-insensitive; unknown files are Default.
func Detect(name string) string {
	base := strings.ToLower(filepath.Base(name))
	if lang, ok := byName[base]; ok {
		return lang
	}
	if lang, ok := byExtension[filepath.Ext(base)]; ok {
		return lang
	}
	return Default
}

// IsJavaScriptFamily reports whether tag is one of the JS/TS dialects.
func IsJavaScriptFamily(tag string) bool {
	switch tag {
	case JavaScript, JavaScriptReact, TypeScript, TypeScriptReact:
		return true
	}
	return false
}
