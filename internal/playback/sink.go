package playback

import (
	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/session"
)

// Sink receives the drawing produced by playback. Positions are normalized
// to [0,1]. Draw gets one, two or three positions: the newest point and up
// to two before it in the same stroke.
type Sink interface {
	Draw(color session.RGB, radius float64, pts ...session.Pos)
	Clear()
}

// Resizer is implemented by sinks that track the canvas size.
type Resizer interface {
	Resize(size session.Size)
}

// LogSink writes draw calls to the debug log. It backs headless playback.
type LogSink struct {
	Draws  int
	Clears int
}

func (s *LogSink) Draw(color session.RGB, radius float64, pts ...session.Pos) {
	s.Draws++
	p := pts[len(pts)-1]
	internal.LogDebug("draw (%.3f, %.3f) r=%.4f color=(%.2f, %.2f, %.2f)", p.X, p.Y, radius, color.R, color.G, color.B)
}

func (s *LogSink) Clear() {
	s.Clears++
	internal.LogDebug("clear")
}
