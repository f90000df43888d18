// Package console provides a ViewRenderer that presents view descriptors on
// a terminal, for local development and the interactive CLI.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/parley/pkg/domain"
)

// Renderer implements ports.ViewRenderer. Markdown-capable terminals get
// styled output through glamour; everything else gets plain text.
type Renderer struct {
	out    io.Writer
	render func(string) (string, error)
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithWriter redirects output (default: stdout).
func WithWriter(w io.Writer) Option {
	return func(r *Renderer) {
		r.out = w
	}
}

// New creates a console renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{out: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}

	if r.out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())) &&
		termenv.NewOutput(os.Stdout).ColorProfile() != termenv.Ascii {
		if tr, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
			r.render = tr.Render
		}
	}
	if r.render == nil {
		r.render = func(s string) (string, error) { return s + "\n", nil }
	}
	return r
}

// Render prints the view descriptor. The "text" prop is treated as the main
// body; option-like props become a list; everything else is echoed as
// key/value detail lines.
func (r *Renderer) Render(ctx context.Context, channelKey string, view domain.ViewNode) error {
	var b strings.Builder

	if text, ok := view.Props["text"].(string); ok {
		b.WriteString(text)
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "## %s\n", view.Component)
	}

	if options, ok := view.Props["options"].([]any); ok {
		b.WriteString("\n")
		for _, opt := range options {
			fmt.Fprintf(&b, "- %v\n", opt)
		}
	}

	for _, key := range detailKeys(view.Props) {
		fmt.Fprintf(&b, "\n*%s*: %v\n", key, view.Props[key])
	}

	styled, err := r.render(b.String())
	if err != nil {
		styled = b.String()
	}
	_, err = fmt.Fprint(r.out, styled)
	return err
}

func detailKeys(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for key := range props {
		if key == "text" || key == "options" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
