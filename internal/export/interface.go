package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iksnae/deskcorder/internal/session"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(l *session.Log, w io.Writer) error
	Extension() string
}

// Options tune the exporters that need them.
type Options struct {
	// Width and Height of rendered pages and images, in points or pixels.
	// Zero means 400x300.
	Width, Height int
	// Times to snapshot the canvas at, in seconds from the start of the
	// session. Empty means the end of every slide.
	Times []float64
	// SampleRate of the exported audio track. Zero means 44100.
	SampleRate int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 400
	}
	if h <= 0 {
		h = 300
	}
	return w, h
}

var formats = map[string]func(Options) Exporter{
	"json":  func(Options) Exporter { return &JSONExporter{} },
	"jsonl": func(Options) Exporter { return &JSONLExporter{} },
	"yaml":  func(Options) Exporter { return &YAMLExporter{} },
	"csv":   func(Options) Exporter { return &CSVExporter{} },
	"pdf":   func(o Options) Exporter { return &PDFExporter{Options: o} },
	"png":   func(o Options) Exporter { return &PNGExporter{Options: o} },
	"wav":   func(o Options) Exporter { return &WAVExporter{SampleRate: o.SampleRate} },
}

// Formats lists the supported format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewExporter creates a new exporter based on format
func NewExporter(format string, opts Options) (Exporter, error) {
	if format == "yml" {
		format = "yaml"
	}
	mk, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return mk(opts), nil
}
