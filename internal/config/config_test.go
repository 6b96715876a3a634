package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWith(t *testing.T, values map[string]interface{}) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for key, value := range values {
		viper.Set(key, value)
	}
	return Load()
}

func TestLoad(t *testing.T) {
	t.Run("minimal config gets defaults", func(t *testing.T) {
		cfg, err := loadWith(t, map[string]interface{}{
			"build.entry": "templates/*.hbs",
		})
		require.NoError(t, err)

		assert.Equal(t, "templates/*.hbs", cfg.Build.Entry)
		assert.Equal(t, "dist", cfg.Build.OutputDir)
		assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("entry is required", func(t *testing.T) {
		_, err := loadWith(t, nil)
		assert.Error(t, err)
	})

	t.Run("flat flag keys are honored", func(t *testing.T) {
		cfg, err := loadWith(t, map[string]interface{}{
			"entry":      "pages/*.hbs",
			"output":     "dist/[name].html",
			"output_dir": "public",
			"data":       "site.json",
		})
		require.NoError(t, err)

		assert.Equal(t, "pages/*.hbs", cfg.Build.Entry)
		assert.Equal(t, "dist/[name].html", cfg.Build.Output)
		assert.Equal(t, "public", cfg.Build.OutputDir)
		assert.Equal(t, "site.json", cfg.Build.Data)
	})

	t.Run("full build section", func(t *testing.T) {
		cfg, err := loadWith(t, map[string]interface{}{
			"build.entry":    "templates/**/*.hbs",
			"build.output":   "dist/[name].html",
			"build.partials": []string{"partials/**/*.hbs"},
			"build.helpers":  map[string]string{"all": "helpers/*.hbs"},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"partials/**/*.hbs"}, cfg.Build.Partials)
		assert.Equal(t, map[string]string{"all": "helpers/*.hbs"}, cfg.Build.Helpers)
	})
}

func TestLoad_Validation(t *testing.T) {
	t.Run("rejects traversal in patterns", func(t *testing.T) {
		_, err := loadWith(t, map[string]interface{}{
			"build.entry": "../outside/*.hbs",
		})
		assert.Error(t, err)
	})

	t.Run("rejects dangerous characters", func(t *testing.T) {
		_, err := loadWith(t, map[string]interface{}{
			"build.entry":    "templates/*.hbs",
			"build.partials": []string{"partials/$(evil)/*.hbs"},
		})
		assert.Error(t, err)
	})

	t.Run("rejects unknown log format", func(t *testing.T) {
		_, err := loadWith(t, map[string]interface{}{
			"build.entry": "templates/*.hbs",
			"log.format":  "xml",
		})
		assert.Error(t, err)
	})

	t.Run("rejects negative debounce", func(t *testing.T) {
		_, err := loadWith(t, map[string]interface{}{
			"build.entry":    "templates/*.hbs",
			"watch.debounce": -time.Second,
		})
		assert.Error(t, err)
	})
}

func TestWatchBases(t *testing.T) {
	t.Run("derived from glob patterns", func(t *testing.T) {
		cfg, err := loadWith(t, map[string]interface{}{
			"build.entry":    "templates/**/*.hbs",
			"build.partials": []string{"partials/*.hbs"},
			"build.helpers":  map[string]string{"all": "helpers/*.hbs"},
			"build.data":     "data/site.json",
		})
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"templates", "partials", "helpers", "data"}, cfg.Watch.Paths)
	})

	t.Run("explicit watch paths win", func(t *testing.T) {
		cfg, err := loadWith(t, map[string]interface{}{
			"build.entry": "templates/*.hbs",
			"watch.paths": []string{"src"},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"src"}, cfg.Watch.Paths)
	})
}

func TestGlobBase(t *testing.T) {
	assert.Equal(t, "templates", globBase("templates/*.hbs"))
	assert.Equal(t, "partials", globBase("partials/**/*.hbs"))
	assert.Equal(t, "helpers", globBase("helpers/badge.hbs"))
	assert.Equal(t, ".", globBase("*.hbs"))
	assert.Equal(t, ".", globBase("."))
}
