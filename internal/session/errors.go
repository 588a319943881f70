package session

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfOrder is returned when an event precedes the log's last event.
	ErrOutOfOrder = errors.New("event time precedes last event")
	// ErrStrokeBracket is returned for a Click, Point, Release, Clear or Start
	// that would break Click…Release bracketing.
	ErrStrokeBracket = errors.New("stroke bracket violated")
	// ErrUnknownMedia is returned for an AudioRecord referencing no segment.
	ErrUnknownMedia = errors.New("unknown media index")
	// ErrRewind is returned by AdvanceTo for a target behind the cursor.
	ErrRewind = errors.New("target time precedes iterator position")
	// ErrNoSegment is returned when appending audio with no open segment.
	ErrNoSegment = errors.New("no open audio segment")
	// ErrSegmentOpen is returned when opening a segment while one is open.
	ErrSegmentOpen = errors.New("audio segment already open")
)

// SequenceError describes an event rejected by Log.Append.
type SequenceError struct {
	Index int // position the event would have taken
	Kind  Kind
	T     float64
	Err   error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence error at %d (%s @ %.3f): %v", e.Index, e.Kind, e.T, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}
