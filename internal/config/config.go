// Package config provides configuration management for hbsbuild using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files (.hbsbuild.yml),
// environment overrides with the HBSBUILD_ prefix, defaults, and path
// hygiene validation. It covers the build options (entry glob, output
// naming, data source, helper and partial patterns) and the watch-mode
// options of the local harness.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Build Build `yaml:"build" mapstructure:"build"`
	Watch Watch `yaml:"watch" mapstructure:"watch"`
	Log   Log   `yaml:"log" mapstructure:"log"`
}

// Build configures one plugin instance.
type Build struct {
	// Entry is the glob pattern selecting template entry files.
	Entry string `yaml:"entry" mapstructure:"entry"`
	// Output is the optional target naming template; [name] is replaced
	// with the entry's extension-stripped base name.
	Output string `yaml:"output" mapstructure:"output"`
	// OutputDir is the managed output directory assets are flushed to.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// Data is an inline value or a path to a JSON file.
	Data interface{} `yaml:"data" mapstructure:"data"`
	// Helpers maps names to helper file paths or glob patterns.
	Helpers map[string]string `yaml:"helpers" mapstructure:"helpers"`
	// Partials are glob patterns for partial sources.
	Partials []string `yaml:"partials" mapstructure:"partials"`
}

// Watch configures the watch-mode harness.
type Watch struct {
	// Paths are the directories watched recursively. Defaults to the
	// fixed bases of the configured globs.
	Paths []string `yaml:"paths" mapstructure:"paths"`
	// Debounce groups rapid changes into one build pass.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Log configures console logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load unmarshals the viper state into a Config and applies defaults
// and validation.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle flat keys set via flags (workaround for viper nesting).
	if viper.IsSet("entry") && config.Build.Entry == "" {
		config.Build.Entry = viper.GetString("entry")
	}
	if viper.IsSet("output") && config.Build.Output == "" {
		config.Build.Output = viper.GetString("output")
	}
	if viper.IsSet("output_dir") && config.Build.OutputDir == "" {
		config.Build.OutputDir = viper.GetString("output_dir")
	}
	if viper.IsSet("data") && config.Build.Data == nil {
		config.Build.Data = viper.Get("data")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Build.OutputDir == "" {
		config.Build.OutputDir = "dist"
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = watchBases(&config.Build)
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// watchBases derives watch roots from the configured glob patterns.
func watchBases(build *Build) []string {
	seen := make(map[string]bool)
	var bases []string

	add := func(pattern string) {
		if pattern == "" {
			return
		}
		base := globBase(pattern)
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}

	add(build.Entry)
	for _, pattern := range build.Partials {
		add(pattern)
	}
	for _, pattern := range build.Helpers {
		add(pattern)
	}
	if path, ok := build.Data.(string); ok {
		add(path)
	}
	return bases
}

// globBase returns the fixed directory prefix of a glob pattern.
func globBase(pattern string) string {
	parts := strings.Split(filepath.ToSlash(pattern), "/")
	var fixed []string
	for _, part := range parts {
		if strings.ContainsAny(part, "*?[{") {
			break
		}
		fixed = append(fixed, part)
	}
	// Drop a trailing file name from non-glob paths.
	if len(fixed) == len(parts) && len(fixed) > 0 {
		fixed = fixed[:len(fixed)-1]
	}
	if len(fixed) == 0 {
		return "."
	}
	return filepath.FromSlash(strings.Join(fixed, "/"))
}

// validateConfig validates configuration values for correctness and
// path hygiene.
func validateConfig(config *Config) error {
	if config.Build.Entry == "" {
		return fmt.Errorf("build config: entry pattern is required")
	}
	if err := validatePath(config.Build.Entry); err != nil {
		return fmt.Errorf("build config: invalid entry pattern %q: %w", config.Build.Entry, err)
	}
	for _, pattern := range config.Build.Partials {
		if err := validatePath(pattern); err != nil {
			return fmt.Errorf("build config: invalid partial pattern %q: %w", pattern, err)
		}
	}
	for name, pattern := range config.Build.Helpers {
		if err := validatePath(pattern); err != nil {
			return fmt.Errorf("build config: invalid helper pattern %q (%s): %w", pattern, name, err)
		}
	}
	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: debounce must not be negative")
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: format must be \"text\" or \"json\", got %q", config.Log.Format)
	}
	return nil
}

// validatePath rejects traversal attempts and shell-dangerous characters
// in configured paths and patterns.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}
	return nil
}
