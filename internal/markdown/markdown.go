// Package markdown converts multi-line descriptor values into HTML.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter renders Markdown source to an HTML fragment.
type Converter interface {
	Convert(src string) (string, error)
}

// Options controls which goldmark extensions are enabled.
type Options struct {
	// SmartPunctuation enables curly quotes, dashes and ellipses.
	SmartPunctuation bool
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
	// Unsafe keeps raw HTML embedded in the source.
	Unsafe bool
}

// DefaultOptions is what page content formatting uses.
func DefaultOptions() Options {
	return Options{SmartPunctuation: true, GFM: true, Unsafe: true}
}

// Goldmark is a Converter backed by github.com/yuin/goldmark.
type Goldmark struct {
	md goldmark.Markdown
}

// New builds a goldmark Converter with the given options.
func New(opts Options) *Goldmark {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	if opts.SmartPunctuation {
		exts = append(exts, extension.Typographer)
	}
	var rendererOpts []goldmark.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Goldmark{md: goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...)}
}

// Default returns a converter configured with DefaultOptions.
func Default() *Goldmark { return New(DefaultOptions()) }

func (g *Goldmark) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
