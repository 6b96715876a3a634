// Package deps implements the file-dependency ledger: the record of every
// external file a plugin instance has read, used to decide whether a
// change reported by the host is relevant to this instance at all.
package deps

import "path/filepath"

// Tracker accumulates the absolute paths of files consumed during build
// passes. It is append-only for the life of the owning plugin instance;
// stale entries at worst cause an extra rebuild, never a missed one.
type Tracker struct {
	paths []string
}

// NewTracker creates an empty dependency tracker.
func NewTracker() *Tracker {
	return &Tracker{paths: make([]string, 0, 16)}
}

// Record appends the given paths to the ledger. Empty paths are ignored;
// duplicates are allowed, since membership rather than uniqueness is what
// matters downstream. Relative paths are made absolute so they compare
// cleanly against host-reported watch paths.
func (t *Tracker) Record(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		t.paths = append(t.paths, p)
	}
}

// ContainsAny reports whether at least one candidate is present in the
// ledger. The ledger stays small (tens to low hundreds of entries), so a
// linear scan is fine.
func (t *Tracker) ContainsAny(candidates []string) bool {
	for _, c := range candidates {
		if abs, err := filepath.Abs(c); err == nil {
			c = abs
		}
		for _, p := range t.paths {
			if p == c {
				return true
			}
		}
	}
	return false
}

// Contains reports whether a single path is present in the ledger.
func (t *Tracker) Contains(path string) bool {
	return t.ContainsAny([]string{path})
}

// Paths returns a copy of the recorded paths, in recording order.
func (t *Tracker) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// Len returns the number of recorded entries, duplicates included.
func (t *Tracker) Len() int {
	return len(t.paths)
}
