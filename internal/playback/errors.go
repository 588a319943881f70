package playback

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by Play and Seek on a log with no events.
var ErrEmpty = errors.New("nothing to play")

// InvalidOperationError reports a request the controller cannot honor in its
// current state. Callers undo any UI toggle they set optimistically.
type InvalidOperationError struct {
	Op    string
	State State
	Err   error
}

func (e *InvalidOperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid operation: %s while %s: %v", e.Op, e.State, e.Err)
	}
	return fmt.Sprintf("invalid operation: %s while %s", e.Op, e.State)
}

func (e *InvalidOperationError) Unwrap() error {
	return e.Err
}

// TickError wraps a failure raised inside a tick. Playback is already
// stopped when it is returned.
type TickError struct {
	Progress float64
	Err      error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("playback tick at %.3fs: %v", e.Progress, e.Err)
}

func (e *TickError) Unwrap() error {
	return e.Err
}
