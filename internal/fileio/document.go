package fileio

import (
	"fmt"
	"math"
	"slices"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/session"
)

func toMillis(t float64) (uint64, error) {
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("time %v cannot be stored", t)
	}
	return uint64(math.Round(t * 1000)), nil
}

func fromMillis(ms uint64) float64 {
	return float64(ms) / 1000
}

type sample struct {
	t   float64
	pos session.Pos
	p   float64
}

// pen collects one stroke while a log is walked for encoding.
type pen struct {
	state   session.State
	samples []sample
	points  int
}

// buildDocument walks l and lays it out as slides of strokes for sch.
// Drag, End and VideoRecord events have no place in the layout.
func buildDocument(l *session.Log, sch schema, opts Options) (*document, error) {
	doc := &document{
		version: sch.version(),
		aspect:  float32(session.DefaultSize.AspectRatio()),
	}

	it := l.Iter()
	var cur *pen
	// implicit is set while the only slide was opened by a stroke rather
	// than a boundary. A Start arriving then names that slide instead of
	// opening another.
	implicit := false

	newSlide := func(t float64, blank []int) error {
		ms, err := toMillis(t)
		if err != nil {
			return err
		}
		doc.slides = append(doc.slides, slide{clear: ms, blank: blank})
		if len(doc.slides) == 1 {
			doc.aspect = float32(it.State().Size.AspectRatio())
		}
		return nil
	}
	flush := func() error {
		if cur == nil {
			return nil
		}
		st, err := penStroke(cur, sch)
		cur = nil
		if err != nil {
			return err
		}
		last := &doc.slides[len(doc.slides)-1]
		last.strokes = append(last.strokes, st)
		return nil
	}

	for {
		e, ok := it.Step()
		if !ok {
			break
		}
		var err error
		switch ev := e.(type) {
		case *session.Start:
			if implicit {
				doc.aspect = float32(it.State().Size.AspectRatio())
				implicit = false
				break
			}
			err = newSlide(ev.T, ev.Blank)
		case *session.Clear:
			implicit = false
			err = newSlide(ev.T, ev.Blank)
		case *session.Click:
			if len(doc.slides) == 0 {
				err = newSlide(ev.T, nil)
				implicit = true
			}
			cur = &pen{state: it.State()}
			cur.samples = append(cur.samples, sample{ev.T, ev.Pos, ev.P})
		case *session.Point:
			cur.samples = append(cur.samples, sample{ev.T, ev.Pos, ev.P})
			cur.points++
		case *session.Release:
			cur.samples = append(cur.samples, sample{ev.T, ev.Pos, ev.P})
			err = flush()
		case *session.Move:
			var ms uint64
			if ms, err = toMillis(ev.T); err == nil {
				doc.moves = append(doc.moves, move{t: ms, x: float32(ev.Pos.X), y: float32(ev.Pos.Y)})
			}
		case *session.Drag, *session.Color, *session.Thickness, *session.End,
			*session.Resize, *session.AudioRecord, *session.VideoRecord:
		}
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", it.Pos()-1, e.Kind(), err)
		}
	}
	// A stroke still open when recording stopped is closed by its last sample.
	if err := flush(); err != nil {
		return nil, err
	}
	for i := range doc.slides {
		restoreBlanks(&doc.slides[i])
	}

	segments := l.Audio()
	if sch.audio() == audioNone {
		if len(segments) > 0 {
			internal.LogWarn("version %s cannot store audio; dropping %d segment(s)", sch.version(), len(segments))
		}
		return doc, nil
	}
	for _, seg := range segments {
		ms, err := toMillis(seg.Start)
		if err != nil {
			return nil, err
		}
		data, err := encodeAudio(seg, sch.audio(), opts)
		if err != nil {
			return nil, err
		}
		doc.audio = append(doc.audio, audioRecord{t: ms, data: data})
	}
	return doc, nil
}

// restoreBlanks puts zero-point strokes back where the file they were read
// from had them. Positions are ascending indexes into the final stroke list.
func restoreBlanks(s *slide) {
	for _, at := range s.blank {
		at = max(0, min(at, len(s.strokes)))
		s.strokes = slices.Insert(s.strokes, at, stroke{})
	}
	s.blank = nil
}

func penStroke(p *pen, sch schema) (stroke, error) {
	st := stroke{
		aspect:    float32(p.state.Size.AspectRatio()),
		thickness: float32(p.state.Thickness),
		color: [3]float32{
			float32(p.state.Color.R),
			float32(p.state.Color.G),
			float32(p.state.Color.B),
		},
	}
	samples := p.samples
	// A stroke read back from a single record comes in as Click+Release
	// with identical fields; write it as the one record it was.
	if p.points == 0 && len(samples) == 2 && samples[0] == samples[1] {
		samples = samples[:1]
	}
	for _, s := range samples {
		ms, err := toMillis(s.t)
		if err != nil {
			return stroke{}, err
		}
		st.points = append(st.points, point{
			t: ms,
			x: float32(s.pos.X),
			y: float32(s.pos.Y),
			f: sch.field(p.state.Thickness, s.p),
		})
	}
	return st, nil
}

// buildLog turns a decoded document into a fresh log. Nothing is returned
// unless every event is accepted.
func buildLog(doc *document, sch schema, opts Options) (*session.Log, error) {
	l := session.New()
	st := session.DefaultState()
	if sch.hasAspect() {
		st.Size = session.SizeFromAspect(float64(doc.aspect))
	} else if len(doc.slides) > 0 {
		internal.LogWarn("version %s has no aspect ratio; assuming %gx%g", sch.version(), st.Size.W, st.Size.H)
	}

	var strokes []session.Event
	emit := func(e session.Event) { strokes = append(strokes, e) }

	for i := range doc.slides {
		s := &doc.slides[i]
		var blank []int
		for j := range s.strokes {
			if len(s.strokes[j].points) == 0 {
				blank = append(blank, j)
			}
		}
		t := fromMillis(s.clear)
		if i == 0 {
			emit(&session.Start{T: t, Size: st.Size, Blank: blank})
		} else {
			emit(&session.Clear{T: t, Size: st.Size, Blank: blank})
		}

		for j := range s.strokes {
			sk := &s.strokes[j]
			if len(sk.points) == 0 {
				continue
			}
			thickness, pressure := sch.unpack(sk)
			t0 := fromMillis(sk.points[0].t)

			if sch.hasAspect() && sk.aspect > 0 && sk.aspect != float32(st.Size.AspectRatio()) {
				st.Size = session.SizeFromAspect(float64(sk.aspect))
				emit(&session.Resize{T: t0, Size: st.Size})
			}
			color := session.RGB{R: float64(sk.color[0]), G: float64(sk.color[1]), B: float64(sk.color[2])}
			if !sameColor(color, st.Color) {
				st.Color = color
				emit(&session.Color{T: t0, Color: color})
			}
			if !sch.sameThickness(thickness, st.Thickness) {
				st.Thickness = thickness
				emit(&session.Thickness{T: t0, Value: thickness})
			}

			last := len(sk.points) - 1
			for k, p := range sk.points {
				t := fromMillis(p.t)
				pos := session.Pos{X: float64(p.x), Y: float64(p.y)}
				switch k {
				case 0:
					emit(&session.Click{T: t, Pos: pos, P: pressure[k]})
				case last:
					emit(&session.Release{T: t, Pos: pos, P: pressure[k]})
				default:
					emit(&session.Point{T: t, Pos: pos, P: pressure[k]})
				}
			}
			if last == 0 {
				p := sk.points[0]
				emit(&session.Release{T: fromMillis(p.t), Pos: session.Pos{X: float64(p.x), Y: float64(p.y)}, P: pressure[0]})
			}
		}
	}

	moves := make([]session.Event, 0, len(doc.moves))
	for _, m := range doc.moves {
		moves = append(moves, &session.Move{T: fromMillis(m.t), Pos: session.Pos{X: float64(m.x), Y: float64(m.y)}})
	}

	records := make([]session.Event, 0, len(doc.audio))
	for _, a := range doc.audio {
		seg, err := decodeAudio(fromMillis(a.t), a.data, sch.audio(), opts)
		if err != nil {
			return nil, err
		}
		records = append(records, &session.AudioRecord{T: seg.Start, Media: l.AddAudio(seg)})
	}

	for _, e := range merge(merge(strokes, moves), records) {
		if err := l.Append(e); err != nil {
			return nil, &FormatError{Op: "events", Err: err}
		}
	}
	return l, nil
}

func sameColor(a, b session.RGB) bool {
	return float32(a.R) == float32(b.R) && float32(a.G) == float32(b.G) && float32(a.B) == float32(b.B)
}

// merge interleaves two event sequences by time, keeping each sequence's own
// order and placing a before b on ties.
func merge(a, b []session.Event) []session.Event {
	out := make([]session.Event, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Time() < a[i].Time() {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
