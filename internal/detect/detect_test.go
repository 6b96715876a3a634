package detect

import (
	"testing"
	"time"

	"github.com/ahmader/handlebars-webpack-plugin/internal/deps"
	"github.com/stretchr/testify/assert"
)

func TestDetector_Changed(t *testing.T) {
	t.Run("path newer than session start is changed", func(t *testing.T) {
		detector := NewDetector()
		snapshot := FromMap(map[string]time.Time{
			"/templates/index.hbs": time.Now().Add(time.Minute),
		})

		changed := detector.Changed(snapshot)
		assert.Equal(t, []string{"/templates/index.hbs"}, changed)
	})

	t.Run("path older than session start is unchanged", func(t *testing.T) {
		detector := NewDetector()
		snapshot := FromMap(map[string]time.Time{
			"/templates/index.hbs": time.Now().Add(-time.Hour),
		})

		assert.Empty(t, detector.Changed(snapshot))
	})

	t.Run("unchanged between passes", func(t *testing.T) {
		detector := NewDetector()
		mod := time.Now().Add(time.Minute)
		snapshot := FromMap(map[string]time.Time{"/a.hbs": mod})

		assert.Len(t, detector.Changed(snapshot), 1)
		// Same snapshot again: nothing advanced.
		assert.Empty(t, detector.Changed(snapshot))
	})

	t.Run("advancing timestamp is changed again", func(t *testing.T) {
		detector := NewDetector()
		mod := time.Now().Add(time.Minute)
		detector.Changed(FromMap(map[string]time.Time{"/a.hbs": mod}))

		later := FromMap(map[string]time.Time{"/a.hbs": mod.Add(time.Second)})
		assert.Equal(t, []string{"/a.hbs"}, detector.Changed(later))
	})

	t.Run("path without timestamp is always changed", func(t *testing.T) {
		detector := NewDetector()
		snapshot := FromMap(map[string]time.Time{"/a.hbs": {}})

		assert.Equal(t, []string{"/a.hbs"}, detector.Changed(snapshot))
		// Not persisted: still changed on the next pass.
		assert.Equal(t, []string{"/a.hbs"}, detector.Changed(snapshot))
	})

	t.Run("nil snapshot yields empty changed-set", func(t *testing.T) {
		detector := NewDetector()
		assert.Empty(t, detector.Changed(nil))
	})
}

func TestDetector_RequiresRebuild(t *testing.T) {
	t.Run("no tracked file changed means skip", func(t *testing.T) {
		detector := NewDetector()
		ledger := deps.NewTracker()
		ledger.Record("/templates/index.hbs")

		snapshot := FromMap(map[string]time.Time{
			"/unrelated.css": time.Now().Add(time.Minute),
			"/unrelated.js":  time.Now().Add(time.Minute),
		})

		assert.False(t, detector.RequiresRebuild(snapshot, ledger))
	})

	t.Run("tracked file changed means rebuild", func(t *testing.T) {
		detector := NewDetector()
		ledger := deps.NewTracker()
		ledger.Record("/templates/index.hbs")

		snapshot := FromMap(map[string]time.Time{
			"/unrelated.css":       time.Now().Add(time.Minute),
			"/templates/index.hbs": time.Now().Add(time.Minute),
		})

		assert.True(t, detector.RequiresRebuild(snapshot, ledger))
	})

	t.Run("empty snapshot fails open", func(t *testing.T) {
		detector := NewDetector()
		ledger := deps.NewTracker()
		ledger.Record("/templates/index.hbs")

		assert.True(t, detector.RequiresRebuild(FromMap(nil), ledger))
		assert.True(t, detector.RequiresRebuild(nil, ledger))
	})

	t.Run("stale snapshot fails open", func(t *testing.T) {
		// Every path older than session start: empty changed-set, so
		// the detector proceeds rather than skipping.
		detector := NewDetector()
		ledger := deps.NewTracker()

		snapshot := FromMap(map[string]time.Time{
			"/a.hbs": time.Now().Add(-time.Hour),
		})

		assert.True(t, detector.RequiresRebuild(snapshot, ledger))
	})
}

func TestTimestampAdapters(t *testing.T) {
	t.Run("map adapter", func(t *testing.T) {
		now := time.Now()
		ts := FromMap(map[string]time.Time{"/a": now, "/b": {}})

		assert.ElementsMatch(t, []string{"/a", "/b"}, ts.Paths())

		mod, ok := ts.ModTime("/a")
		assert.True(t, ok)
		assert.Equal(t, now, mod)

		_, ok = ts.ModTime("/b")
		assert.False(t, ok)

		_, ok = ts.ModTime("/missing")
		assert.False(t, ok)
	})

	t.Run("entries adapter", func(t *testing.T) {
		now := time.Now()
		ts := FromEntries([]Entry{
			{Path: "/a", ModTime: now},
			{Path: "/b"},
			{Path: "/a", ModTime: now.Add(time.Second)}, // later entry wins
		})

		assert.Equal(t, []string{"/a", "/b"}, ts.Paths())

		mod, ok := ts.ModTime("/a")
		assert.True(t, ok)
		assert.Equal(t, now.Add(time.Second), mod)

		_, ok = ts.ModTime("/b")
		assert.False(t, ok)
	})

	t.Run("both shapes drive the detector identically", func(t *testing.T) {
		mod := time.Now().Add(time.Minute)

		fromMap := NewDetector().Changed(FromMap(map[string]time.Time{"/a": mod}))
		fromEntries := NewDetector().Changed(FromEntries([]Entry{{Path: "/a", ModTime: mod}}))

		assert.Equal(t, fromMap, fromEntries)
	})
}
