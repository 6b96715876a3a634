// Package detect decides, once per build pass, whether anything the
// plugin depends on has changed since the previous pass.
//
// The host reports a per-file timestamp snapshot; the detector diffs it
// against the previously seen snapshot (or the session start time for
// paths it has never seen) and intersects the result with the dependency
// ledger. The decision is deliberately fail-open: an empty changed-set
// means the host gave us nothing to go on, and skipping a render on no
// information is worse than rendering once too often.
package detect

import (
	"time"

	"github.com/ahmader/handlebars-webpack-plugin/internal/deps"
)

// Timestamps is a read-only view of the host's per-watched-file
// modification times. A path may be present with no known time; such a
// path counts as changed on every pass.
//
// Host build tools expose this in more than one shape; adapters below
// translate the common ones.
type Timestamps interface {
	// Paths enumerates every watched path in the snapshot.
	Paths() []string
	// ModTime returns the last-modified time for a path. ok is false
	// when the snapshot holds the path without a usable timestamp.
	ModTime(path string) (time.Time, bool)
}

// Entry is one path/timestamp pair of an entry-shaped snapshot.
type Entry struct {
	Path    string
	ModTime time.Time
}

type mapTimestamps struct {
	m     map[string]time.Time
	paths []string
}

// FromMap adapts a path-to-mtime map. A zero time value marks a path
// with no usable timestamp.
func FromMap(m map[string]time.Time) Timestamps {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	return &mapTimestamps{m: m, paths: paths}
}

func (t *mapTimestamps) Paths() []string { return t.paths }

func (t *mapTimestamps) ModTime(path string) (time.Time, bool) {
	mod, ok := t.m[path]
	if !ok || mod.IsZero() {
		return time.Time{}, false
	}
	return mod, true
}

type entryTimestamps struct {
	byPath map[string]time.Time
	paths  []string
}

// FromEntries adapts an entry-iterable snapshot. Later entries for the
// same path win. A zero time value marks a path with no usable timestamp.
func FromEntries(entries []Entry) Timestamps {
	byPath := make(map[string]time.Time, len(entries))
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, seen := byPath[e.Path]; !seen {
			paths = append(paths, e.Path)
		}
		byPath[e.Path] = e.ModTime
	}
	return &entryTimestamps{byPath: byPath, paths: paths}
}

func (t *entryTimestamps) Paths() []string { return t.paths }

func (t *entryTimestamps) ModTime(path string) (time.Time, bool) {
	mod, ok := t.byPath[path]
	if !ok || mod.IsZero() {
		return time.Time{}, false
	}
	return mod, true
}

// Detector tracks the previous snapshot across passes for one plugin
// instance. Not safe for concurrent use; passes run to completion one at
// a time.
type Detector struct {
	startTime time.Time
	prev      map[string]time.Time
}

// NewDetector creates a detector whose baseline for never-seen paths is
// fixed at the time of the call.
func NewDetector() *Detector {
	return &Detector{
		startTime: time.Now(),
		prev:      make(map[string]time.Time),
	}
}

// Changed computes the set of watched paths whose timestamp advanced
// past the previously recorded one (or past the session start time for
// paths never seen before), and persists the current snapshot as the new
// baseline.
//
// A path with no usable timestamp in the snapshot always counts as
// changed and is never persisted, so it stays changed on every pass.
func (d *Detector) Changed(current Timestamps) []string {
	if current == nil {
		return nil
	}

	var changed []string
	for _, path := range current.Paths() {
		mod, ok := current.ModTime(path)
		if !ok {
			changed = append(changed, path)
			continue
		}

		baseline, seen := d.prev[path]
		if !seen {
			baseline = d.startTime
		}
		if mod.After(baseline) {
			changed = append(changed, path)
		}
		d.prev[path] = mod
	}
	return changed
}

// RequiresRebuild reports whether the plugin should re-render this pass.
// True when the changed-set intersects the ledger, and also when the
// changed-set is empty: no information from the host is treated as
// "proceed" so a first run or an odd host snapshot never silently skips
// rendering.
func (d *Detector) RequiresRebuild(current Timestamps, ledger *deps.Tracker) bool {
	changed := d.Changed(current)
	if len(changed) == 0 {
		return true
	}
	return ledger.ContainsAny(changed)
}
