// Package engine wraps the Handlebars implementation behind an
// instance-scoped registry of helpers and partials.
//
// raymond keeps a process-wide helper/partial registry; this wrapper
// never touches it. Helpers and partials live on the Engine value and
// are applied to each compiled template, so independent plugin instances
// cannot cross-pollute each other's registries.
package engine

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/aymerick/raymond"
)

// Engine holds an instance-scoped set of named helpers and partials and
// compiles template source against them.
type Engine struct {
	helpers  map[string]interface{}
	partials map[string]string
}

// New creates an engine with empty registries.
func New() *Engine {
	return &Engine{
		helpers:  make(map[string]interface{}),
		partials: make(map[string]string),
	}
}

// RegisterHelper registers a named helper function. Registering the same
// name again replaces the previous helper.
func (e *Engine) RegisterHelper(name string, fn interface{}) error {
	if name == "" {
		return fmt.Errorf("helper name must not be empty")
	}
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("helper %q must be a function, got %T", name, fn)
	}
	e.helpers[name] = fn
	return nil
}

// RegisterPartial registers a named partial source. Registering the same
// name again replaces the previous source; partials are re-registered on
// every build pass since their files may change between passes.
func (e *Engine) RegisterPartial(name, source string) {
	if name == "" {
		return
	}
	e.partials[name] = source
}

// HelperNames returns the registered helper names, sorted.
func (e *Engine) HelperNames() []string {
	names := make([]string, 0, len(e.helpers))
	for name := range e.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PartialNames returns the registered partial names, sorted.
func (e *Engine) PartialNames() []string {
	names := make([]string, 0, len(e.partials))
	for name := range e.partials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile parses template source and binds this engine's helpers and
// partials to the resulting template.
func (e *Engine) Compile(source string) (*Template, error) {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	if len(e.helpers) > 0 {
		tpl.RegisterHelpers(e.helpers)
	}
	for name, partial := range e.partials {
		tpl.RegisterPartial(name, partial)
	}

	return &Template{tpl: tpl}, nil
}

// Template is a compiled template ready to accept a data value.
type Template struct {
	tpl *raymond.Template
}

// Render evaluates the template against the given data value.
func (t *Template) Render(data interface{}) (string, error) {
	out, err := t.tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return out, nil
}

// FragmentHelper compiles a Handlebars fragment into a helper function
// that renders the fragment against the helper's first argument. This is
// how file-based helpers work here: the matched file's content becomes
// the helper body.
func FragmentHelper(source string) (interface{}, error) {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing helper fragment: %w", err)
	}

	helper := func(ctx interface{}) raymond.SafeString {
		out, err := tpl.Exec(ctx)
		if err != nil {
			return raymond.SafeString("")
		}
		return raymond.SafeString(out)
	}
	return helper, nil
}
