// Package fileio persists session logs. The binary container is the primary
// format; a directory container shares its record layout, and legacy XML
// and flat text containers are kept readable and writable.
package fileio

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/session"
)

var tracer = otel.Tracer("github.com/iksnae/deskcorder/internal/fileio")

// Format is a container kind, named by its file extension.
type Format string

const (
	FormatBinary    Format = "dcb"
	FormatDirectory Format = "dcd"
	FormatXML       Format = "dcx"
	FormatText      Format = "dct"
	FormatArchive   Format = "dar"
)

// Formats lists the containers with a human-readable description.
var Formats = map[Format]string{
	FormatBinary:    "Deskcorder binary file",
	FormatDirectory: "Deskcorder directory",
	FormatXML:       "Deskcorder XML file",
	FormatText:      "Deskcorder text file",
	FormatArchive:   "Deskcorder archive",
}

// FormatFor picks the container for path by extension; unknown extensions
// use the binary container.
func FormatFor(path string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimRight(path, `/\`)), "."))
	switch Format(ext) {
	case FormatDirectory, FormatXML, FormatText, FormatArchive:
		return Format(ext)
	default:
		return FormatBinary
	}
}

// Options tune encoding and decoding.
type Options struct {
	// Version is the schema written by Save for binary and directory
	// containers. The zero value means DefaultVersion.
	Version Version
	// Speex transcodes 0.2.0 audio. Optional.
	Speex AudioCodec
	// SampleRate of PCM audio, used when writing WAV. Zero means 44100.
	SampleRate int
}

func (o Options) version() Version {
	if o.Version == (Version{}) {
		return DefaultVersion
	}
	return o.Version
}

func (o Options) sampleRate() int {
	if o.SampleRate <= 0 {
		return session.SampleRate
	}
	return o.SampleRate
}

// Load reads the session stored at path. The caller's state is never touched
// on failure: a log is returned only when the whole file decoded.
func Load(ctx context.Context, path string, opts Options) (*session.Log, Version, error) {
	format := FormatFor(path)
	_, span := tracer.Start(ctx, "fileio.Load", trace.WithAttributes(
		attribute.String("deskcorder.path", path),
		attribute.String("deskcorder.format", string(format)),
	))
	defer span.End()

	l, v, err := load(path, format, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, Version{}, withPath(err, path)
	}
	span.SetAttributes(
		attribute.String("deskcorder.version", v.String()),
		attribute.Int("deskcorder.events", l.Len()),
	)
	internal.LogDebug("loaded %s (%s, version %s, %d events)", path, format, v, l.Len())
	return l, v, nil
}

func load(path string, format Format, opts Options) (*session.Log, Version, error) {
	switch format {
	case FormatDirectory:
		return DecodeDirectory(path, opts)
	case FormatText:
		return loadText(path, opts)
	case FormatArchive:
		return loadArchive(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Version{}, &internal.StorageError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()
	if format == FormatXML {
		return DecodeXML(f, opts)
	}
	return DecodeBinary(f, opts)
}

// Save writes l to path in the container chosen by its extension. Binary
// output goes to a temporary file first so a failed save leaves any
// existing file intact.
func Save(ctx context.Context, path string, l *session.Log, opts Options) error {
	format := FormatFor(path)
	_, span := tracer.Start(ctx, "fileio.Save", trace.WithAttributes(
		attribute.String("deskcorder.path", path),
		attribute.String("deskcorder.format", string(format)),
		attribute.String("deskcorder.version", opts.version().String()),
	))
	defer span.End()

	if err := save(path, format, l, opts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return withPath(err, path)
	}
	internal.LogDebug("saved %s (%s, %d events)", path, format, l.Len())
	return nil
}

func save(path string, format Format, l *session.Log, opts Options) error {
	switch format {
	case FormatDirectory:
		return EncodeDirectory(path, l, opts.version(), opts)
	case FormatText:
		return saveText(path, l, opts)
	case FormatArchive:
		return saveArchive(path, l, opts)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	defer os.Remove(tmp.Name())

	if format == FormatXML {
		err = EncodeXML(tmp, l, opts)
	} else {
		err = EncodeBinary(tmp, l, opts.version(), opts)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// Summary counts what a log holds.
type Summary struct {
	Events   int     `json:"events" yaml:"events"`
	Slides   int     `json:"slides" yaml:"slides"`
	Strokes  int     `json:"strokes" yaml:"strokes"`
	Points   int     `json:"points" yaml:"points"`
	Moves    int     `json:"moves" yaml:"moves"`
	Audio    int     `json:"audio" yaml:"audio"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// Summarize counts the slides, strokes and points of l. Slides are counted
// the way the containers lay them out: strokes before any boundary open a
// slide, and a Start that follows them belongs to it.
func Summarize(l *session.Log) Summary {
	s := Summary{Events: l.Len(), Audio: len(l.Audio()), Duration: l.Duration()}
	implicit := false
	for _, e := range l.Events() {
		switch e.(type) {
		case *session.Start:
			if !implicit {
				s.Slides++
			}
			implicit = false
		case *session.Clear:
			s.Slides++
			implicit = false
		case *session.Click:
			s.Strokes++
			s.Points++
			if s.Slides == 0 {
				s.Slides = 1
				implicit = true
			}
		case *session.Point, *session.Release:
			s.Points++
		case *session.Move:
			s.Moves++
		default:
		}
	}
	return s
}
