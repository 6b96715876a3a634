// Package pipeline renders entry template files: it resolves the entry
// glob, derives each file's target path, runs the compile/render/save
// hook chain, and hands the result to the output router. Every file it
// reads lands in the dependency ledger so the next change-detection
// cycle sees it.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmader/handlebars-webpack-plugin/internal/deps"
	"github.com/ahmader/handlebars-webpack-plugin/internal/engine"
	"github.com/ahmader/handlebars-webpack-plugin/internal/host"
	"github.com/ahmader/handlebars-webpack-plugin/internal/logging"
	"github.com/ahmader/handlebars-webpack-plugin/internal/output"
	"github.com/ahmader/handlebars-webpack-plugin/internal/resolve"
)

// NamePlaceholder is the token in an output naming template that is
// replaced by the entry file's extension-stripped base name.
const NamePlaceholder = "[name]"

// Hooks are the per-file extension points. Unset hooks pass values
// through; a hook returning its type's zero value means "keep the
// original".
type Hooks struct {
	OnBeforeCompile func(pass host.Pass, templateContent string) string
	OnBeforeRender  func(pass host.Pass, data interface{}) interface{}
	OnBeforeSave    func(pass host.Pass, result, targetPath string) string
	OnDone          func(pass host.Pass, targetPath string)
}

// Pipeline renders all entries matched by one glob pattern.
type Pipeline struct {
	entry          string
	outputTemplate string
	engine         *engine.Engine
	ledger         *deps.Tracker
	hooks          Hooks
	logger         logging.Logger
}

// New creates a render pipeline. entry is the glob pattern selecting the
// template files; outputTemplate is the optional naming template.
func New(entry, outputTemplate string, eng *engine.Engine, ledger *deps.Tracker, hooks Hooks, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Pipeline{
		entry:          entry,
		outputTemplate: outputTemplate,
		engine:         eng,
		ledger:         ledger,
		hooks:          hooks,
		logger:         logger.WithComponent("pipeline"),
	}
}

// TargetPath computes the output location for a source file. With no
// naming template the source path simply loses its extension. With a
// naming template, the source file's extension-stripped base name is
// substituted wherever the [name] token appears; every other character
// of the template is left untouched.
func TargetPath(sourcePath, outputTemplate string) string {
	if outputTemplate == "" {
		return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	}
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(outputTemplate, NamePlaceholder, name)
}

// Run renders every entry matched by the pipeline's glob against the
// given data value. A glob I/O failure aborts the pass; zero matches is
// only a warning. The first render failure aborts the pass and
// propagates to the host's error channel.
func (p *Pipeline) Run(pass host.Pass, data interface{}) error {
	ctx := context.Background()

	matches, err := resolve.Glob(p.entry)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		p.logger.Warn(ctx, nil, "no valid entry files found, skipping render", "pattern", p.entry)
		return nil
	}

	router := output.NewRouter(pass)
	for _, sourcePath := range matches {
		if err := p.renderEntry(ctx, pass, router, sourcePath, data); err != nil {
			return fmt.Errorf("entry %s: %w", sourcePath, err)
		}
	}
	return nil
}

func (p *Pipeline) renderEntry(ctx context.Context, pass host.Pass, router *output.Router, sourcePath string, data interface{}) error {
	targetPath := TargetPath(sourcePath, p.outputTemplate)

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}
	p.ledger.Record(sourcePath)

	content := string(raw)
	if p.hooks.OnBeforeCompile != nil {
		if replaced := p.hooks.OnBeforeCompile(pass, content); replaced != "" {
			content = replaced
		}
	}

	tpl, err := p.engine.Compile(content)
	if err != nil {
		return err
	}

	if p.hooks.OnBeforeRender != nil {
		if replaced := p.hooks.OnBeforeRender(pass, data); replaced != nil {
			data = replaced
		}
	}

	result, err := tpl.Render(data)
	if err != nil {
		return err
	}

	if p.hooks.OnBeforeSave != nil {
		if replaced := p.hooks.OnBeforeSave(pass, result, targetPath); replaced != "" {
			result = replaced
		}
	}

	if err := router.Write(targetPath, result); err != nil {
		return err
	}

	if p.hooks.OnDone != nil {
		p.hooks.OnDone(pass, targetPath)
	}

	p.logger.Info(ctx, "created file", "path", displayPath(targetPath))
	return nil
}

// displayPath strips the current working directory prefix for log
// readability.
func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	trimmed := strings.TrimPrefix(path, cwd)
	if trimmed == path {
		return path
	}
	return strings.TrimLeft(trimmed, "/\\")
}
