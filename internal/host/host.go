// Package host defines the contracts the plugin core needs from the
// surrounding build tool, plus Compilation, the local implementation the
// hbsbuild CLI uses as its host.
//
// The core consumes exactly four things per build pass: a per-file
// timestamp snapshot, an in-memory asset set, the declared output
// directory, and a sink for the file paths it consumed.
package host

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ahmader/handlebars-webpack-plugin/internal/detect"
)

// Asset is one in-memory build output.
type Asset interface {
	Contents() []byte
	Size() int
}

// AssetSet is the host's in-memory output collection, keyed by path
// relative to the output directory.
type AssetSet interface {
	Add(name string, contents []byte)
	Get(name string) (Asset, bool)
	Names() []string
}

// Pass is one build pass as seen by the plugin core.
type Pass interface {
	// FileTimestamps returns the host's per-watched-file snapshot for
	// this pass. May be nil when the host has no watch information.
	FileTimestamps() detect.Timestamps
	// Assets returns the in-memory output set for this pass.
	Assets() AssetSet
	// OutputDir returns the host's declared output directory.
	OutputDir() string
	// AddFileDependencies registers files the plugin consumed so the
	// host can watch them for future passes.
	AddFileDependencies(paths ...string)
}

type memoryAsset struct {
	contents []byte
}

func (a *memoryAsset) Contents() []byte { return a.contents }
func (a *memoryAsset) Size() int        { return len(a.contents) }

// MemoryAssets is the standard in-memory AssetSet implementation.
type MemoryAssets struct {
	mu     sync.Mutex
	assets map[string]*memoryAsset
}

// NewMemoryAssets creates an empty asset set.
func NewMemoryAssets() *MemoryAssets {
	return &MemoryAssets{assets: make(map[string]*memoryAsset)}
}

// Add stores contents under the given relative name, replacing any
// previous asset with that name.
func (m *MemoryAssets) Add(name string, contents []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[name] = &memoryAsset{contents: contents}
}

// Get returns the asset stored under name.
func (m *MemoryAssets) Get(name string) (Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[name]
	return asset, ok
}

// Names returns the stored asset names, sorted.
func (m *MemoryAssets) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.assets))
	for name := range m.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compilation is the CLI harness's Pass implementation: it owns the
// asset set and collects the dependency paths the plugin reports, so the
// watch command can extend its coverage between passes.
type Compilation struct {
	timestamps detect.Timestamps
	assets     *MemoryAssets
	outputDir  string

	mu       sync.Mutex
	fileDeps []string
}

// NewCompilation creates a pass with the given snapshot and output
// directory. The output directory is made absolute so router containment
// checks behave the same regardless of how it was configured.
func NewCompilation(timestamps detect.Timestamps, outputDir string) *Compilation {
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	return &Compilation{
		timestamps: timestamps,
		assets:     NewMemoryAssets(),
		outputDir:  outputDir,
	}
}

func (c *Compilation) FileTimestamps() detect.Timestamps { return c.timestamps }
func (c *Compilation) Assets() AssetSet                  { return c.assets }
func (c *Compilation) OutputDir() string                 { return c.outputDir }

// AddFileDependencies records consumed files reported by the plugin.
func (c *Compilation) AddFileDependencies(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileDeps = append(c.fileDeps, paths...)
}

// FileDependencies returns the consumed files reported so far.
func (c *Compilation) FileDependencies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.fileDeps))
	copy(out, c.fileDeps)
	return out
}

// FlushAssets writes every in-memory asset beneath the output directory,
// creating intermediate directories as needed. This is the emit phase of
// the local harness; a real host build tool would serve or bundle the
// assets instead.
func (c *Compilation) FlushAssets() error {
	for _, name := range c.assets.Names() {
		asset, _ := c.assets.Get(name)
		target := filepath.Join(c.outputDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating output directory for %s: %w", name, err)
		}
		if err := os.WriteFile(target, asset.Contents(), 0644); err != nil {
			return fmt.Errorf("writing asset %s: %w", name, err)
		}
	}
	return nil
}
