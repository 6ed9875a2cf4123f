// Package deps reads dependency manifests from a project root.
package deps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
)

// Manifest file names, looked up in the project root only.
const (
	PackageJSON  = "package.json"
	Requirements = "requirements.txt"
	Gemfile      = "Gemfile"
	ComposerJSON = "composer.json"
	CargoTOML    = "Cargo.toml"
	GoMod        = "go.mod"
)

// NodePackage is the normalized package.json record.
type NodePackage struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// Composer is the normalized composer.json record.
type Composer struct {
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

// Cargo is the normalized Cargo.toml record. Content keeps the raw file.
type Cargo struct {
	Package         map[string]any `json:"package" toml:"package"`
	Dependencies    map[string]any `json:"dependencies" toml:"dependencies"`
	DevDependencies map[string]any `json:"dev-dependencies" toml:"dev-dependencies"`
	Content         string         `json:"content" toml:"-"`
}

// Set holds one entry per ecosystem. Nil fields mean the manifest was absent
// or failed to parse; both serialize as an empty object or list.
type Set struct {
	Package      *NodePackage
	Requirements []string
	Gemfile      []string
	Composer     *Composer
	Cargo        *Cargo
	Gomod        []string
}

// MarshalJSON always emits all six ecosystem keys.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Package      any      `json:"package"`
		Requirements []string `json:"requirements"`
		Gemfile      []string `json:"gemfile"`
		Composer     any      `json:"composer"`
		Cargo        any      `json:"cargo"`
		Gomod        []string `json:"gomod"`
	}{
		Package:      objectOrEmpty(s.Package),
		Requirements: listOrEmpty(s.Requirements),
		Gemfile:      listOrEmpty(s.Gemfile),
		Composer:     objectOrEmpty(s.Composer),
		Cargo:        objectOrEmpty(s.Cargo),
		Gomod:        listOrEmpty(s.Gomod),
	})
}

// ManifestError reports a manifest that exists but could not be read or parsed.
type ManifestError struct {
	File string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// Read collects every manifest found in root. A failing manifest leaves its
// ecosystem empty and is reported in the returned slice; the others are
// still read.
func Read(root string) (Set, []error) {
	var (
		set  Set
		errs []error
	)

	readers := []struct {
		file  string
		parse func([]byte) error
	}{
		{PackageJSON, func(data []byte) (err error) { set.Package, err = parsePackage(data); return }},
		{Requirements, func(data []byte) error { set.Requirements = parseRequirements(data); return nil }},
		{Gemfile, func(data []byte) error { set.Gemfile = strings.Split(string(data), "\n"); return nil }},
		{ComposerJSON, func(data []byte) (err error) { set.Composer, err = parseComposer(data); return }},
		{CargoTOML, func(data []byte) (err error) { set.Cargo, err = parseCargo(data); return }},
		{GoMod, func(data []byte) (err error) { set.Gomod, err = parseGoMod(data); return }},
	}

	for _, r := range readers {
		data, err := os.ReadFile(filepath.Join(root, r.file))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, &ManifestError{File: r.file, Err: err})
			}
			continue
		}
		if err := r.parse(data); err != nil {
			errs = append(errs, &ManifestError{File: r.file, Err: err})
		}
	}
	return set, errs
}

func parsePackage(data []byte) (*NodePackage, error) {
	var pkg NodePackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	pkg.Dependencies = mapOrEmpty(pkg.Dependencies)
	pkg.DevDependencies = mapOrEmpty(pkg.DevDependencies)
	pkg.Scripts = mapOrEmpty(pkg.Scripts)
	return &pkg, nil
}

// parseRequirements keeps non-blank lines that do not start with '#'.
func parseRequirements(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func parseComposer(data []byte) (*Composer, error) {
	var c Composer
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.Require = mapOrEmpty(c.Require)
	c.RequireDev = mapOrEmpty(c.RequireDev)
	return &c, nil
}

func parseCargo(data []byte) (*Cargo, error) {
	var c Cargo
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, err
	}
	c.Package = mapOrEmpty(c.Package)
	c.Dependencies = mapOrEmpty(c.Dependencies)
	c.DevDependencies = mapOrEmpty(c.DevDependencies)
	c.Content = string(data)
	return &c, nil
}

// parseGoMod returns require entries as "path version".
func parseGoMod(data []byte) ([]string, error) {
	f, err := modfile.ParseLax(GoMod, data, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(f.Require))
	for _, r := range f.Require {
		out = append(out, r.Mod.Path+" "+r.Mod.Version)
	}
	return out, nil
}

func mapOrEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

func listOrEmpty(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func objectOrEmpty[T any](v *T) any {
	if v == nil {
		return struct{}{}
	}
	return v
}
