package export

import (
	"fmt"
	"math"

	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/internal/session"
)

// Position is a normalized canvas coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Dimensions is a canvas size in pixels.
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Record is the exported form of one event. Only the fields the event kind
// carries are set.
type Record struct {
	Kind      string      `json:"kind" yaml:"kind"`
	Time      float64     `json:"t" yaml:"t"`
	Pos       *Position   `json:"pos,omitempty" yaml:"pos,omitempty"`
	Pressure  *float64    `json:"pressure,omitempty" yaml:"pressure,omitempty"`
	Color     string      `json:"color,omitempty" yaml:"color,omitempty"`
	Thickness *float64    `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	Size      *Dimensions `json:"size,omitempty" yaml:"size,omitempty"`
	Media     *int        `json:"media,omitempty" yaml:"media,omitempty"`
	Target    *int        `json:"target,omitempty" yaml:"target,omitempty"`
}

// AudioInfo describes one audio segment.
type AudioInfo struct {
	Start    float64 `json:"start" yaml:"start"`
	Encoding string  `json:"encoding" yaml:"encoding"`
	Bytes    int     `json:"bytes" yaml:"bytes"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// Document is a whole session in exportable form.
type Document struct {
	Summary fileio.Summary `json:"summary" yaml:"summary"`
	Events  []Record       `json:"events" yaml:"events"`
	Audio   []AudioInfo    `json:"audio,omitempty" yaml:"audio,omitempty"`
}

// NewDocument converts l for export.
func NewDocument(l *session.Log) Document {
	doc := Document{
		Summary: fileio.Summarize(l),
		Events:  Records(l),
	}
	for _, a := range l.Audio() {
		doc.Audio = append(doc.Audio, AudioInfo{
			Start:    a.Start,
			Encoding: string(a.Encoding),
			Bytes:    a.Len(),
			Duration: a.Duration(session.SampleRate),
		})
	}
	return doc
}

// Records converts every event of l.
func Records(l *session.Log) []Record {
	events := l.Events()
	out := make([]Record, 0, len(events))
	for _, e := range events {
		out = append(out, NewRecord(e))
	}
	return out
}

// NewRecord converts one event.
func NewRecord(e session.Event) Record {
	r := Record{Kind: e.Kind().String(), Time: e.Time()}
	if pos, ok := session.PositionOf(e); ok {
		r.Pos = &Position{X: pos.X, Y: pos.Y}
	}
	switch ev := e.(type) {
	case *session.Click:
		r.Pressure = ptr(ev.P)
	case *session.Point:
		r.Pressure = ptr(ev.P)
	case *session.Release:
		r.Pressure = ptr(ev.P)
	case *session.Drag:
		r.Target = ptr(ev.Target)
	case *session.Color:
		r.Color = hexColor(ev.Color)
	case *session.Thickness:
		r.Thickness = ptr(ev.Value)
	case *session.Start:
		r.Size = dimensions(ev.Size)
	case *session.Clear:
		r.Size = dimensions(ev.Size)
	case *session.End:
		r.Size = dimensions(ev.Size)
	case *session.Resize:
		r.Size = dimensions(ev.Size)
	case *session.AudioRecord:
		r.Media = ptr(ev.Media)
	case *session.VideoRecord:
		r.Media = ptr(ev.Media)
	case *session.Move:
	}
	return r
}

func ptr[T any](v T) *T { return &v }

func dimensions(s session.Size) *Dimensions {
	return &Dimensions{Width: s.W, Height: s.H}
}

func channel(v float64) uint8 {
	return uint8(math.Round(255 * math.Max(0, math.Min(1, v))))
}

func hexColor(c session.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}
