// Package render presents scan reports on a terminal or as JSON.
package render

import (
	"io"

	"RangeScout/internal/model"
	"RangeScout/internal/scanner"
)

// Renderer renders a scan report to an output writer.
type Renderer interface {
	Render(w io.Writer, report *scanner.Report, opts Options) error
}

type Options struct {
	Color       bool
	PrettyJSON  bool
	ShowSkipped bool
	// MaxWidth caps table row length; 0 means unlimited.
	MaxWidth int
	// Names optionally maps symbols to company names.
	Names map[model.Symbol]string
}

// New returns the renderer for format: "table" or "json".
func New(format string) (Renderer, bool) {
	switch format {
	case "", "table":
		return NewTableRenderer(), true
	case "json":
		return NewJSONRenderer(), true
	default:
		return nil, false
	}
}
