package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ahmader/handlebars-webpack-plugin/internal/config"
	"github.com/ahmader/handlebars-webpack-plugin/internal/detect"
	"github.com/ahmader/handlebars-webpack-plugin/internal/host"
	"github.com/ahmader/handlebars-webpack-plugin/internal/logging"
	"github.com/ahmader/handlebars-webpack-plugin/internal/plugin"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Render all entry templates once",
	Long: `Render every template matched by the entry glob into the output
directory. Partials and helpers are resolved fresh, and the data option
is read before rendering.

Examples:
  hbsbuild build
  hbsbuild build --entry "pages/*.hbs" --output-dir public
  hbsbuild build --data site.json`,
	RunE: runBuildCommand,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	addBuildFlags(buildCmd.Flags())
}

// addBuildFlags defines the build option flags and binds them into
// viper under their config keys.
func addBuildFlags(flags *pflag.FlagSet) {
	flags.StringP("entry", "e", "", "glob pattern selecting entry templates")
	flags.StringP("output", "o", "", "target naming template ([name] is replaced per entry)")
	flags.StringP("output-dir", "d", "", "managed output directory")
	flags.String("data", "", "inline data or path to a JSON file")

	for flag, key := range map[string]string{
		"entry":      "entry",
		"output":     "output",
		"output-dir": "output_dir",
		"data":       "data",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runBuildCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	p, err := newPlugin(cfg, logger)
	if err != nil {
		return err
	}

	// A one-shot build has no previous pass to diff against, so the
	// empty snapshot always yields a full rebuild.
	start := time.Now()
	compilation := host.NewCompilation(detect.FromMap(nil), cfg.Build.OutputDir)
	if err := runPass(p, compilation); err != nil {
		return err
	}

	ctx := context.Background()
	logger.Info(ctx, "build complete",
		"assets", len(compilation.Assets().Names()),
		"dependencies", len(compilation.FileDependencies()),
		"duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}

// runPass drives one full host pass: prepare, emit, flush.
func runPass(p *plugin.Plugin, compilation *host.Compilation) error {
	if err := p.Prepare(compilation); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := p.Emit(compilation); err != nil {
		return fmt.Errorf("reporting dependencies: %w", err)
	}
	if err := compilation.FlushAssets(); err != nil {
		return fmt.Errorf("writing assets: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
		Color:  cfg.Log.Format != "json",
	})
}

func newPlugin(cfg *config.Config, logger logging.Logger) (*plugin.Plugin, error) {
	return plugin.New(plugin.Options{
		Entry:    cfg.Build.Entry,
		Output:   cfg.Build.Output,
		Data:     cfg.Build.Data,
		Helpers:  cfg.Build.Helpers,
		Partials: cfg.Build.Partials,
		Logger:   logger,
	})
}
