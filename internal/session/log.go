package session

import (
	"errors"
	"sort"
	"sync"
)

// Log is the ordered record of one capture run. Events are appended in
// non-decreasing time order; audio segments live in a parallel list guarded
// by a mutex because the capture device appends from its own goroutine.
type Log struct {
	events []Event
	stroke bool // a Click is waiting for its Release

	audioMu sync.Mutex
	audio   []*AudioData
	open    *AudioData
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Len returns the number of events.
func (l *Log) Len() int { return len(l.events) }

// IsEmpty reports whether the log has neither events nor audio.
func (l *Log) IsEmpty() bool {
	return len(l.events) == 0 && len(l.Audio()) == 0
}

// Events returns a copy of the event slice.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// At returns the i-th event.
func (l *Log) At(i int) Event { return l.events[i] }

// Append adds e to the end of the log. An event older than the last one, or
// one breaking the stroke bracket, is rejected and the log is left unchanged.
func (l *Log) Append(e Event) error {
	if e == nil {
		return errors.New("append nil event")
	}
	if n := len(l.events); n > 0 && e.Time() < l.events[n-1].Time() {
		return l.sequenceError(e, ErrOutOfOrder)
	}

	switch ev := e.(type) {
	case *Click:
		if l.stroke {
			return l.sequenceError(e, ErrStrokeBracket)
		}
	case *Point, *Release:
		if !l.stroke {
			return l.sequenceError(e, ErrStrokeBracket)
		}
	case *Clear, *Start:
		if l.stroke {
			return l.sequenceError(e, ErrStrokeBracket)
		}
	case *AudioRecord:
		l.audioMu.Lock()
		n := len(l.audio)
		l.audioMu.Unlock()
		if ev.Media < 0 || ev.Media >= n {
			return l.sequenceError(e, ErrUnknownMedia)
		}
	case *Move, *Drag, *Color, *Thickness, *End, *Resize, *VideoRecord:
	}

	l.events = append(l.events, e)
	switch e.(type) {
	case *Click:
		l.stroke = true
	case *Release:
		l.stroke = false
	}
	return nil
}

func (l *Log) sequenceError(e Event, err error) error {
	return &SequenceError{Index: len(l.events), Kind: e.Kind(), T: e.Time(), Err: err}
}

// InStroke reports whether a Click is still waiting for its Release.
func (l *Log) InStroke() bool { return l.stroke }

// First returns the first event, or nil.
func (l *Log) First() Event {
	if len(l.events) == 0 {
		return nil
	}
	return l.events[0]
}

// Last returns the most recent event of any of the given kinds, or of any
// kind when none are given. It returns nil when nothing matches.
func (l *Log) Last(kinds ...Kind) Event {
	return l.lastBefore(len(l.events), kinds...)
}

func (l *Log) lastBefore(end int, kinds ...Kind) Event {
	for i := end - 1; i >= 0; i-- {
		if len(kinds) == 0 || hasKind(kinds, l.events[i].Kind()) {
			return l.events[i]
		}
	}
	return nil
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Resize records a canvas size change. A trailing Resize or Start is updated
// in place so continuous window dragging produces a single event.
func (l *Log) Resize(t float64, size Size) error {
	if n := len(l.events); n > 0 {
		switch ev := l.events[n-1].(type) {
		case *Resize:
			ev.Size = size
			return nil
		case *Start:
			ev.Size = size
			return nil
		}
	}
	return l.Append(&Resize{T: t, Size: size})
}

// Duration returns the time between the first and last events.
func (l *Log) Duration() float64 {
	if len(l.events) < 2 {
		return 0
	}
	return l.events[len(l.events)-1].Time() - l.events[0].Time()
}

// EarliestTime returns the earliest timestamp across events and audio.
func (l *Log) EarliestTime() float64 {
	var (
		t   float64
		set bool
	)
	if len(l.events) > 0 {
		t, set = l.events[0].Time(), true
	}
	for _, a := range l.Audio() {
		if !set || a.Start < t {
			t, set = a.Start, true
		}
	}
	return t
}

// LatestTime returns the latest timestamp across events and the ends of
// audio segments.
func (l *Log) LatestTime() float64 {
	var (
		t   float64
		set bool
	)
	if len(l.events) > 0 {
		t, set = l.events[len(l.events)-1].Time(), true
	}
	for _, a := range l.Audio() {
		if end := a.Start + a.Duration(SampleRate); !set || end > t {
			t, set = end, true
		}
	}
	return t
}

// Iter returns an iterator positioned before the first event.
func (l *Log) Iter() *Iterator {
	return newIterator(l, 0, DefaultState())
}

// EventsToTime returns an iterator positioned at the Clear or Start boundary
// governing time t, with its state recovered from the events before that
// boundary. Draining it with AdvanceTo(t) yields the boundary first and leaves
// the first event later than t under the cursor.
func (l *Log) EventsToTime(t float64) *Iterator {
	// First event strictly after t; everything before it is at or before t.
	next := sort.Search(len(l.events), func(i int) bool {
		return l.events[i].Time() > t
	})

	start := 0
	for i := next - 1; i >= 0; i-- {
		if IsBoundary(l.events[i]) {
			start = i
			break
		}
	}
	return newIterator(l, start, l.stateBefore(start))
}

// stateBefore rebuilds the replay state in effect just before events[i].
func (l *Log) stateBefore(i int) State {
	st := DefaultState()
	if e, ok := l.lastBefore(i, KindColor).(*Color); ok {
		st.Color = e.Color
	}
	if e, ok := l.lastBefore(i, KindThickness).(*Thickness); ok {
		st.Thickness = e.Value
	}
	if e := l.lastBefore(i, KindResize, KindStart, KindClear); e != nil {
		st.applySize(sizeOf(e))
	}
	return st
}

func sizeOf(e Event) Size {
	switch ev := e.(type) {
	case *Resize:
		return ev.Size
	case *Start:
		return ev.Size
	case *Clear:
		return ev.Size
	case *End:
		return ev.Size
	default:
		return Size{}
	}
}

// BeginAudio opens a new audio segment at t and records an AudioRecord for it.
func (l *Log) BeginAudio(t float64) (int, error) {
	l.audioMu.Lock()
	if l.open != nil {
		l.audioMu.Unlock()
		return -1, ErrSegmentOpen
	}
	seg := NewAudioData(t, EncodingRaw)
	l.audio = append(l.audio, seg)
	idx := len(l.audio) - 1
	l.open = seg
	l.audioMu.Unlock()

	if err := l.Append(&AudioRecord{T: t, Media: idx}); err != nil {
		l.audioMu.Lock()
		l.audio = l.audio[:idx]
		l.open = nil
		l.audioMu.Unlock()
		return -1, err
	}
	return idx, nil
}

// AppendAudio adds a PCM chunk to the open segment. It is safe to call from
// the capture device's goroutine.
func (l *Log) AppendAudio(chunk []byte) error {
	l.audioMu.Lock()
	defer l.audioMu.Unlock()
	if l.open == nil {
		return ErrNoSegment
	}
	l.open.Append(chunk)
	return nil
}

// EndAudio closes the open segment, if any.
func (l *Log) EndAudio() {
	l.audioMu.Lock()
	l.open = nil
	l.audioMu.Unlock()
}

// Recording reports whether an audio segment is open.
func (l *Log) Recording() bool {
	l.audioMu.Lock()
	defer l.audioMu.Unlock()
	return l.open != nil
}

// AddAudio appends a finished segment and returns its media index.
func (l *Log) AddAudio(a *AudioData) int {
	l.audioMu.Lock()
	defer l.audioMu.Unlock()
	l.audio = append(l.audio, a)
	return len(l.audio) - 1
}

// Audio returns a snapshot of the audio segment list.
func (l *Log) Audio() []*AudioData {
	l.audioMu.Lock()
	defer l.audioMu.Unlock()
	out := make([]*AudioData, len(l.audio))
	copy(out, l.audio)
	return out
}
