// Package render writes parsed post Documents as styled terminal text,
// sanitized HTML or a JSON tree.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yaklabco/forummark/pkg/markup"
)

// bufWriterSize is the buffer size for output writers (64 KiB).
const bufWriterSize = 64 * 1024

// DefaultWidth is the text width used when none is configured.
const DefaultWidth = 80

// Format is an output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for unsupported formats.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat parses a format name. The empty string means text.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "text", "":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w %q; valid formats: text, html, json", ErrUnknownFormat, name)
	}
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true for known formats.
func (f Format) IsValid() bool {
	switch f {
	case FormatText, FormatHTML, FormatJSON:
		return true
	default:
		return false
	}
}

// Options configures a Renderer.
type Options struct {
	// Writer is the destination (typically os.Stdout).
	Writer io.Writer

	// Format selects the renderer.
	Format Format

	// Color enables ANSI styling in text output.
	Color bool

	// Width is the text output width. Zero means DefaultWidth.
	Width int

	// Minify compacts HTML output.
	Minify bool

	// Compact disables JSON indentation.
	Compact bool
}

// DefaultOptions returns options writing plain text to stdout.
func DefaultOptions() Options {
	return Options{
		Writer: os.Stdout,
		Format: FormatText,
		Width:  DefaultWidth,
	}
}

// Renderer writes a Document.
type Renderer interface {
	Render(ctx context.Context, doc *markup.Document) error
}

// New creates the Renderer for opts.Format.
func New(opts Options) (Renderer, error) {
	if opts.Writer == nil {
		opts.Writer = DefaultOptions().Writer
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	switch format {
	case FormatText:
		return NewTextRenderer(opts), nil
	case FormatHTML:
		return NewHTMLRenderer(opts), nil
	case FormatJSON:
		return NewJSONRenderer(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
