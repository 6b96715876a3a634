package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmader/handlebars-webpack-plugin/internal/engine"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.hbs"), "a")
	writeFile(t, filepath.Join(dir, "nested", "b.hbs"), "b")
	writeFile(t, filepath.Join(dir, "c.txt"), "c")

	t.Run("doublestar matches nested files", func(t *testing.T) {
		matches, err := Glob(filepath.Join(dir, "**", "*.hbs"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.hbs"),
			filepath.Join(dir, "nested", "b.hbs"),
		}, matches)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		matches, err := Glob(filepath.Join(dir, "*.missing"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("malformed pattern is an error", func(t *testing.T) {
		_, err := Glob(filepath.Join(dir, "[unterminated"))
		assert.Error(t, err)
	})
}

func TestPartials(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "partials", "footer.hbs"), "<footer/>")
	writeFile(t, filepath.Join(dir, "partials", "nav", "main.hbs"), "<nav/>")

	t.Run("names are base-relative without extension", func(t *testing.T) {
		partials, err := Partials([]string{filepath.Join(dir, "partials", "**", "*.hbs")})
		require.NoError(t, err)
		require.Len(t, partials, 2)

		names := []string{partials[0].Name, partials[1].Name}
		assert.ElementsMatch(t, []string{"footer", "nav/main"}, names)
	})

	t.Run("sources are read from disk", func(t *testing.T) {
		partials, err := Partials([]string{filepath.Join(dir, "partials", "footer.hbs")})
		require.NoError(t, err)
		require.Len(t, partials, 1)
		assert.Equal(t, "<footer/>", partials[0].Source)
		assert.Equal(t, filepath.Join(dir, "partials", "footer.hbs"), partials[0].Path)
	})

	t.Run("multiple patterns accumulate", func(t *testing.T) {
		partials, err := Partials([]string{
			filepath.Join(dir, "partials", "footer.hbs"),
			filepath.Join(dir, "partials", "nav", "*.hbs"),
		})
		require.NoError(t, err)
		assert.Len(t, partials, 2)
	})

	t.Run("empty pattern list yields nothing", func(t *testing.T) {
		partials, err := Partials(nil)
		require.NoError(t, err)
		assert.Empty(t, partials)
	})
}

func TestHelpers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helpers", "badge.hbs"), `<span class="badge">{{label}}</span>`)
	writeFile(t, filepath.Join(dir, "helpers", "chip.hbs"), `<span class="chip">{{label}}</span>`)

	t.Run("glob value registers one helper per file named by base name", func(t *testing.T) {
		helpers, err := Helpers(map[string]string{
			"projectHelpers": filepath.Join(dir, "helpers", "*.hbs"),
		}, nil)
		require.NoError(t, err)
		require.Len(t, helpers, 2)

		assert.Equal(t, "badge", helpers[0].Name)
		assert.Equal(t, "chip", helpers[1].Name)
		assert.NotNil(t, helpers[0].Fn)
		assert.Equal(t, filepath.Join(dir, "helpers", "badge.hbs"), helpers[0].Path)
	})

	t.Run("plain path registers under the configured key", func(t *testing.T) {
		helpers, err := Helpers(map[string]string{
			"badgeHelper": filepath.Join(dir, "helpers", "badge.hbs"),
		}, nil)
		require.NoError(t, err)
		require.Len(t, helpers, 1)
		assert.Equal(t, "badgeHelper", helpers[0].Name)
	})

	t.Run("missing plain path is an error", func(t *testing.T) {
		_, err := Helpers(map[string]string{
			"gone": filepath.Join(dir, "helpers", "missing.hbs"),
		}, nil)
		assert.Error(t, err)
	})

	t.Run("fragment helpers render through the engine", func(t *testing.T) {
		helpers, err := Helpers(map[string]string{
			"badgeHelper": filepath.Join(dir, "helpers", "badge.hbs"),
		}, nil)
		require.NoError(t, err)

		e := engine.New()
		require.NoError(t, e.RegisterHelper(helpers[0].Name, helpers[0].Fn))

		tpl, err := e.Compile(`{{badgeHelper item}}`)
		require.NoError(t, err)

		out, err := tpl.Render(map[string]interface{}{
			"item": map[string]interface{}{"label": "New"},
		})
		require.NoError(t, err)
		assert.Equal(t, `<span class="badge">New</span>`, out)
	})

	t.Run("custom loader is used", func(t *testing.T) {
		loaded := []string{}
		loader := func(path string) (interface{}, error) {
			loaded = append(loaded, path)
			return func() string { return "stub" }, nil
		}

		helpers, err := Helpers(map[string]string{
			"projectHelpers": filepath.Join(dir, "helpers", "*.hbs"),
		}, loader)
		require.NoError(t, err)
		assert.Len(t, helpers, 2)
		assert.Len(t, loaded, 2)
	})
}
