package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ahmader/handlebars-webpack-plugin/internal/config"
	"github.com/ahmader/handlebars-webpack-plugin/internal/detect"
	"github.com/ahmader/handlebars-webpack-plugin/internal/host"
	"github.com/ahmader/handlebars-webpack-plugin/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild on file changes",
	Long: `Run an initial build, then watch the template, partial, helper and
data directories and rebuild when tracked files change. Change batches
touching only untracked files are skipped.

Examples:
  hbsbuild watch
  hbsbuild watch --debounce 500ms`,
	RunE: runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", 0, "quiet period before a change batch triggers a rebuild")
	watchCmd.Flags().StringSlice("paths", nil, "directories to watch (default: glob bases)")
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if debounce, err := cmd.Flags().GetDuration("debounce"); err == nil && debounce > 0 {
		cfg.Watch.Debounce = debounce
	}
	if paths, err := cmd.Flags().GetStringSlice("paths"); err == nil && len(paths) > 0 {
		cfg.Watch.Paths = paths
	}

	logger := newLogger(cfg)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := newPlugin(cfg, logger)
	if err != nil {
		return err
	}

	// Initial pass sees an empty snapshot and builds everything.
	initial := host.NewCompilation(detect.FromMap(nil), cfg.Build.OutputDir)
	if err := runPass(p, initial); err != nil {
		return err
	}

	fw, err := watcher.New(cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(func(path string) bool {
		return watcher.TemplateFilter(path) || watcher.DataFilter(path)
	})
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoOutputFilter(cfg.Build.OutputDir))

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		compilation := host.NewCompilation(watcher.Snapshot(events), cfg.Build.OutputDir)
		return runPass(p, compilation)
	})

	for _, path := range cfg.Watch.Paths {
		if _, err := os.Stat(path); err != nil {
			logger.Warn(ctx, err, "skipping missing watch path", "path", path)
			continue
		}
		if err := fw.AddRecursive(path); err != nil {
			return err
		}
	}

	fw.Start(ctx)
	logger.Info(ctx, "watching for changes",
		"paths", cfg.Watch.Paths,
		"debounce", cfg.Watch.Debounce.String())

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	return nil
}
