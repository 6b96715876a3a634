// Package plugin is the incremental compilation core. One Plugin
// instance lives for a whole build-watch session: it owns the dependency
// ledger and the change detector, and the host drives it through two
// lifecycle points per pass, Prepare (decide, load data, render) and
// Emit (report consumed files).
package plugin

import (
	"context"
	"fmt"

	"github.com/ahmader/handlebars-webpack-plugin/internal/dataload"
	"github.com/ahmader/handlebars-webpack-plugin/internal/deps"
	"github.com/ahmader/handlebars-webpack-plugin/internal/detect"
	"github.com/ahmader/handlebars-webpack-plugin/internal/engine"
	"github.com/ahmader/handlebars-webpack-plugin/internal/host"
	"github.com/ahmader/handlebars-webpack-plugin/internal/logging"
	"github.com/ahmader/handlebars-webpack-plugin/internal/pipeline"
	"github.com/ahmader/handlebars-webpack-plugin/internal/resolve"
)

// Options configures a Plugin. Options are immutable once passed to New.
type Options struct {
	// Entry is the glob pattern selecting template entry files. Required.
	Entry string
	// Output is the optional naming template for target paths; the
	// [name] token is replaced by the entry's extension-stripped base
	// name. When empty, targets are entry paths with their extension
	// stripped.
	Output string
	// Data is either an inline data value or a string path to a JSON
	// file, re-resolved on every pass.
	Data interface{}
	// Helpers maps names to helper file paths or glob patterns;
	// matched files become helpers via HelperLoader.
	Helpers map[string]string
	// HelperFuncs are programmatic helpers registered by name.
	HelperFuncs map[string]interface{}
	// HelperLoader turns a helper file into a callable. Defaults to
	// resolve.FragmentLoader.
	HelperLoader resolve.HelperLoader
	// Partials are glob patterns for partial sources, re-resolved on
	// every pass.
	Partials []string

	// Extension hooks; unset hooks are identity. A hook returning its
	// type's zero value keeps the original.
	OnBeforeSetup       func(pass host.Pass)
	OnBeforeAddPartials func(pass host.Pass, partials map[string]string) map[string]string
	OnBeforeCompile     func(pass host.Pass, templateContent string) string
	OnBeforeRender      func(pass host.Pass, data interface{}) interface{}
	OnBeforeSave        func(pass host.Pass, result, targetPath string) string
	OnDone              func(pass host.Pass, targetPath string)

	// Engine is the template engine handle; a fresh instance-scoped
	// engine is created when nil. Sharing an engine between plugin
	// instances shares helper/partial registries, so normally every
	// instance gets its own.
	Engine *engine.Engine
	// Logger defaults to a no-op logger.
	Logger logging.Logger
}

// Plugin renders Handlebars entry templates incrementally.
type Plugin struct {
	options  Options
	engine   *engine.Engine
	ledger   *deps.Tracker
	detector *detect.Detector
	logger   logging.Logger
	data     interface{}
}

// New validates options, registers helpers, and creates the session
// state (ledger, detector, session start time).
func New(options Options) (*Plugin, error) {
	if options.Entry == "" {
		return nil, fmt.Errorf("plugin: entry pattern is required")
	}

	eng := options.Engine
	if eng == nil {
		eng = engine.New()
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}

	p := &Plugin{
		options:  options,
		engine:   eng,
		ledger:   deps.NewTracker(),
		detector: detect.NewDetector(),
		logger:   logger.WithComponent("plugin"),
	}

	for name, fn := range options.HelperFuncs {
		if err := eng.RegisterHelper(name, fn); err != nil {
			return nil, fmt.Errorf("plugin: %w", err)
		}
	}

	fileHelpers, err := resolve.Helpers(options.Helpers, options.HelperLoader)
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}
	for _, helper := range fileHelpers {
		if err := eng.RegisterHelper(helper.Name, helper.Fn); err != nil {
			return nil, fmt.Errorf("plugin: %w", err)
		}
		p.ledger.Record(helper.Path)
	}

	return p, nil
}

// Engine returns the instance-scoped template engine handle.
func (p *Plugin) Engine() *engine.Engine { return p.engine }

// FileDependencies returns every file path consumed so far this session.
func (p *Plugin) FileDependencies() []string { return p.ledger.Paths() }

// Prepare is the "prepare/compile" lifecycle point, run once per pass
// before the host finalizes assets. It gates on the change detector,
// refreshes the data snapshot, re-registers partials, and renders all
// entries. Errors propagate to the host's pass error channel.
func (p *Plugin) Prepare(pass host.Pass) error {
	ctx := context.Background()

	if p.options.OnBeforeSetup != nil {
		p.options.OnBeforeSetup(pass)
	}

	if !p.detector.RequiresRebuild(pass.FileTimestamps(), p.ledger) {
		p.logger.Debug(ctx, "no tracked files changed, skipping render pass")
		return nil
	}

	p.data = dataload.Load(p.options.Data, p.ledger, p.logger)

	if err := p.registerPartials(pass); err != nil {
		return err
	}

	pipe := pipeline.New(p.options.Entry, p.options.Output, p.engine, p.ledger, pipeline.Hooks{
		OnBeforeCompile: p.options.OnBeforeCompile,
		OnBeforeRender:  p.options.OnBeforeRender,
		OnBeforeSave:    p.options.OnBeforeSave,
		OnDone:          p.options.OnDone,
	}, p.options.Logger)

	return pipe.Run(pass, p.data)
}

// Emit is the "emit" lifecycle point: it hands the consumed-file list to
// the host so the watcher covers everything the next pass depends on.
// This is the plugin's only interaction with the host's asset graph.
func (p *Plugin) Emit(pass host.Pass) error {
	pass.AddFileDependencies(p.ledger.Paths()...)
	return nil
}

// registerPartials re-resolves partial sources and re-registers them
// with the engine. This runs on every pass: partial files change between
// passes, and each resolved path goes back into the ledger.
func (p *Plugin) registerPartials(pass host.Pass) error {
	resolved, err := resolve.Partials(p.options.Partials)
	if err != nil {
		return err
	}

	partials := make(map[string]string, len(resolved))
	for _, partial := range resolved {
		partials[partial.Name] = partial.Source
		p.ledger.Record(partial.Path)
	}

	if p.options.OnBeforeAddPartials != nil {
		if replaced := p.options.OnBeforeAddPartials(pass, partials); replaced != nil {
			partials = replaced
		}
	}

	for name, source := range partials {
		p.engine.RegisterPartial(name, source)
	}
	return nil
}
