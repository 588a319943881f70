package session

import "math"

// State is the drawing state derived while replaying a log.
type State struct {
	Color     RGB
	Thickness float64
	Size      Size
}

// DefaultState is the state before any event has been replayed.
func DefaultState() State {
	return State{Color: Black, Thickness: DefaultThickness, Size: DefaultSize}
}

func (s *State) applySize(size Size) {
	if size.W > 0 && size.H > 0 {
		s.Size = size
	}
}

// Iterator is a forward-only cursor over a Log.
type Iterator struct {
	log       *Log
	pos       int
	state     State
	watermark float64
}

func newIterator(l *Log, pos int, st State) *Iterator {
	return &Iterator{log: l, pos: pos, state: st, watermark: math.Inf(-1)}
}

// State returns the drawing state after the last consumed event.
func (it *Iterator) State() State { return it.state }

// Pos returns the log index of the next event.
func (it *Iterator) Pos() int { return it.pos }

// HasNext reports whether events remain.
func (it *Iterator) HasNext() bool { return it.pos < len(it.log.events) }

// Peek returns the next event without consuming it.
func (it *Iterator) Peek() (Event, bool) {
	if !it.HasNext() {
		return nil, false
	}
	return it.log.events[it.pos], true
}

// Step consumes and returns the next event, applying its effect on the state.
// It returns false once the log is exhausted.
func (it *Iterator) Step() (Event, bool) {
	e, ok := it.Peek()
	if !ok {
		return nil, false
	}
	it.state.Apply(e)
	it.pos++
	if t := e.Time(); t > it.watermark {
		it.watermark = t
	}
	return e, true
}

// AdvanceTo consumes every event with a time at or before t and returns them
// in order. t must not precede a time the iterator has already reached;
// going backward requires a new iterator from Log.EventsToTime.
func (it *Iterator) AdvanceTo(t float64) ([]Event, error) {
	if t < it.watermark {
		return nil, ErrRewind
	}
	var out []Event
	for {
		e, ok := it.Peek()
		if !ok || e.Time() > t {
			break
		}
		it.Step()
		out = append(out, e)
	}
	it.watermark = t
	return out, nil
}

// Apply updates s with the effect of e. Events that carry no state leave
// it unchanged.
func (s *State) Apply(e Event) {
	switch ev := e.(type) {
	case *Color:
		s.Color = ev.Color
	case *Thickness:
		s.Thickness = ev.Value
	case *Resize:
		s.applySize(ev.Size)
	case *Start:
		s.applySize(ev.Size)
	case *Clear:
		s.applySize(ev.Size)
	case *Click, *Point, *Release, *Move, *Drag, *End, *AudioRecord, *VideoRecord:
	}
}
