// Package reporting renders stack plans and explanations in the formats the
// CLI supports.
package reporting

import (
	"fmt"
	"io"

	"github.com/xkilldash9x/runeforge/internal/plan"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatXML      = "xml"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)

const defaultWidth = 100

// Renderer writes a plan to w in a single format.
type Renderer interface {
	Render(w io.Writer, p *plan.StackPlan) error
}

// options control the human-oriented formats. Machine formats ignore them.
type options struct {
	color    bool
	terminal bool
	width    int
}

// Option adjusts rendering.
type Option func(*options)

// WithColor enables ANSI colors in the table format.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = enabled }
}

// WithTerminal marks the destination as an interactive terminal. Markdown is
// styled for the terminal only when this is set.
func WithTerminal(isTerminal bool) Option {
	return func(o *options) { o.terminal = isTerminal }
}

// WithWidth sets the wrap width for terminal output.
func WithWidth(width int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
	}
}

func newOptions(opts []Option) options {
	o := options{width: defaultWidth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a renderer for the named format.
func New(format string, opts ...Option) (Renderer, error) {
	o := newOptions(opts)
	switch format {
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatYAML:
		return yamlRenderer{}, nil
	case FormatXML:
		return xmlRenderer{}, nil
	case FormatTable:
		return &tableRenderer{opts: o}, nil
	case FormatMarkdown:
		return &markdownRenderer{opts: o}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Render is shorthand for New followed by Render.
func Render(w io.Writer, p *plan.StackPlan, format string, opts ...Option) error {
	r, err := New(format, opts...)
	if err != nil {
		return err
	}
	return r.Render(w, p)
}
