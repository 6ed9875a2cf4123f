// Package fileops reads and overwrites single files for the message server
// and the MCP workspace tools.
package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/projectlens/internal/language"
)

// ErrPathRequired is returned for an empty path.
var ErrPathRequired = errors.New("path is required")

// Content is a whole file with its detected language. Path echoes the
// caller's path, not the resolved one.
type Content struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Read resolves path against the working directory and returns the full file.
func Read(path string) (*Content, error) {
	abs, err := resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return &Content{
		Path:     path,
		Content:  string(data),
		Language: language.Detect(filepath.Base(abs)),
	}, nil
}

// Write replaces the file at path with content. The parent directory must
// exist; an existing file keeps its permissions.
func Write(path, content string) error {
	abs, err := resolve(path)
	if err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(content), 0644)
}

// WriteAll is Write after creating any missing parent directories.
func WriteAll(path, content string) error {
	abs, err := resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("creating parent directories: %w", err)
	}
	return os.WriteFile(abs, []byte(content), 0644)
}

func resolve(path string) (string, error) {
	if path == "" {
		return "", ErrPathRequired
	}
	return filepath.Abs(path)
}
