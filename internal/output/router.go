// Package output routes one rendered file to exactly one destination:
// the host's in-memory asset set when the target falls inside the host's
// declared output directory, or a direct disk write otherwise.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmader/handlebars-webpack-plugin/internal/host"
)

// Router decides where rendered output goes for a given pass.
type Router struct {
	pass host.Pass
}

// NewRouter creates a router bound to one build pass.
func NewRouter(pass host.Pass) *Router {
	return &Router{pass: pass}
}

// Write routes content for targetPath. Targets whose path contains the
// pass's output directory are registered in the in-memory asset set
// under their output-relative name; anything else is a legacy target and
// is written straight to disk, creating parent directories as needed.
func (r *Router) Write(targetPath, content string) error {
	outputDir := r.pass.OutputDir()

	if outputDir != "" && strings.Contains(targetPath, outputDir) {
		name := strings.Replace(targetPath, outputDir, "", 1)
		name = strings.TrimLeft(name, "/\\")
		r.pass.Assets().Add(filepath.ToSlash(name), []byte(content))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("creating directories for %s: %w", targetPath, err)
	}
	if err := os.WriteFile(targetPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", targetPath, err)
	}
	return nil
}
