package export

import (
	"github.com/iksnae/deskcorder/internal/session"
)

// Mark is one pen sample as drawn: a position and a width relative to the
// canvas diagonal.
type Mark struct {
	Pos   session.Pos
	Width float64
}

// Line is a stroke as drawn.
type Line struct {
	Color session.RGB
	Marks []Mark
}

// Scene is what the canvas shows at one moment.
type Scene struct {
	T     float64
	Size  session.Size
	Lines []Line
	open  bool
}

func (sc *Scene) apply(e session.Event, st session.State) {
	switch ev := e.(type) {
	case *session.Start, *session.Clear:
		sc.Lines, sc.open = nil, false
		sc.Size = st.Size
	case *session.Resize:
		sc.Size = st.Size
	case *session.Click:
		sc.Lines = append(sc.Lines, Line{Color: st.Color, Marks: []Mark{{ev.Pos, st.Thickness * ev.P}}})
		sc.open = true
	case *session.Point:
		sc.mark(ev.Pos, st.Thickness*ev.P)
	case *session.Release:
		sc.mark(ev.Pos, st.Thickness*ev.P)
		sc.open = false
	default:
	}
}

func (sc *Scene) mark(pos session.Pos, width float64) {
	if !sc.open {
		return
	}
	l := &sc.Lines[len(sc.Lines)-1]
	l.Marks = append(l.Marks, Mark{pos, width})
}

// SceneAt replays l up to t from the slide boundary governing t.
func SceneAt(l *session.Log, t float64) Scene {
	it := l.EventsToTime(t)
	st := it.State()
	sc := Scene{T: t, Size: st.Size}
	// A fresh iterator cannot rewind.
	events, _ := it.AdvanceTo(t)
	for _, e := range events {
		st.Apply(e)
		sc.apply(e, st)
	}
	return sc
}

// SlideScenes returns each slide as it looked just before the next one
// replaced it.
func SlideScenes(l *session.Log) []Scene {
	var (
		out []Scene
		cur *Scene
	)
	it := l.Iter()
	for {
		e, ok := it.Step()
		if !ok {
			break
		}
		st := it.State()
		if session.IsBoundary(e) && cur != nil {
			out = append(out, *cur)
			cur = nil
		}
		if cur == nil {
			cur = &Scene{Size: st.Size}
		}
		cur.T = e.Time()
		cur.apply(e, st)
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// Scenes returns the scenes at times, or every slide when times is empty.
// Times are offsets from the log's earliest timestamp.
func Scenes(l *session.Log, times []float64) []Scene {
	if len(times) == 0 {
		return SlideScenes(l)
	}
	origin := l.EarliestTime()
	out := make([]Scene, 0, len(times))
	for _, t := range times {
		out = append(out, SceneAt(l, origin+t))
	}
	return out
}
