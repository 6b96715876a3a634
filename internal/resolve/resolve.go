// Package resolve discovers helper and partial sources on disk. It is a
// thin wrapper over glob matching: patterns in, named tuples out.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ahmader/handlebars-webpack-plugin/internal/engine"
)

// Partial is one discovered partial source.
type Partial struct {
	// Name is the registry identifier: the path relative to the glob
	// pattern's fixed base, slash-separated, extension stripped.
	Name string
	// Path is the matched file path.
	Path string
	// Source is the file's content.
	Source string
}

// Helper is one resolved helper: an identifier, a callable, and the
// source path it came from (empty for programmatic helpers).
type Helper struct {
	Name string
	Fn   interface{}
	Path string
}

// HelperLoader turns a matched helper file into a callable.
type HelperLoader func(path string) (interface{}, error)

// FragmentLoader is the default HelperLoader: the file is a Handlebars
// fragment, and the helper renders it against its first argument.
func FragmentLoader(path string) (interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading helper file %s: %w", path, err)
	}
	return engine.FragmentHelper(string(raw))
}

// Glob matches a pattern against the filesystem, supporting ** via
// doublestar. Matches are returned sorted for deterministic pipelines.
func Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Partials resolves the configured partial patterns into named sources.
// It runs on every build pass: partial files may change between passes
// and must be re-read each time.
func Partials(patterns []string) ([]Partial, error) {
	var partials []Partial
	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))

		matches, err := Glob(pattern)
		if err != nil {
			return nil, err
		}

		for _, path := range matches {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading partial %s: %w", path, err)
			}
			partials = append(partials, Partial{
				Name:   partialName(base, path),
				Path:   path,
				Source: string(raw),
			})
		}
	}
	return partials, nil
}

// partialName derives the registry identifier for a partial file: its
// path relative to the pattern base, slash-separated, without extension.
func partialName(base, path string) string {
	slashPath := filepath.ToSlash(path)
	name := slashPath
	if rel, err := filepath.Rel(filepath.FromSlash(base), path); err == nil && !strings.HasPrefix(rel, "..") {
		name = filepath.ToSlash(rel)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Helpers resolves the configured helper entries into named callables.
// A glob value registers one helper per matched file, named by the
// file's extension-stripped base name; a plain file path registers a
// single helper under the entry's key. Keys are processed in sorted
// order so resolution is deterministic.
func Helpers(specs map[string]string, loader HelperLoader) ([]Helper, error) {
	if loader == nil {
		loader = FragmentLoader
	}

	keys := make([]string, 0, len(specs))
	for key := range specs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var helpers []Helper
	for _, key := range keys {
		pattern := specs[key]

		if !isGlobPattern(pattern) {
			fn, err := loader(pattern)
			if err != nil {
				return nil, fmt.Errorf("helper %q: %w", key, err)
			}
			helpers = append(helpers, Helper{Name: key, Fn: fn, Path: pattern})
			continue
		}

		matches, err := Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("helper %q: %w", key, err)
		}
		for _, path := range matches {
			fn, err := loader(path)
			if err != nil {
				return nil, fmt.Errorf("helper %q: %w", key, err)
			}
			helpers = append(helpers, Helper{Name: helperName(path), Fn: fn, Path: path})
		}
	}
	return helpers, nil
}

// helperName derives the helper identifier from a matched file path.
func helperName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
