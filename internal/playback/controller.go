// Package playback drives replay of a session log from an external timer and
// coordinates audio capture and playback.
package playback

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/session"
)

// State is the controller's mode.
type State int

const (
	Stopped State = iota
	Recording
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pause is one interval spent paused, at a playback position.
type Pause struct {
	At       float64
	Duration time.Duration
}

// Controller is the playback state machine. Tick is called by one timer;
// the other methods may be called from any goroutine and take effect
// between ticks.
type Controller struct {
	mu    sync.Mutex
	log   *session.Log
	audio Audio
	state State

	it       *session.Iterator
	earliest float64
	progress float64
	pauses   []Pause
	trail    []session.Pos // newest last, at most three
}

// NewController returns a stopped controller over l.
func NewController(l *session.Log, audio Audio) *Controller {
	if audio == nil {
		audio = NullAudio{}
	}
	return &Controller{log: l, audio: audio}
}

// State returns the current mode.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress returns the playback position in seconds from the earliest
// event or audio sample.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Duration is the length of the log's playback, audio included.
func (c *Controller) Duration() float64 {
	return c.log.LatestTime() - c.log.EarliestTime()
}

// Pauses returns the pause intervals of the current playback.
func (c *Controller) Pauses() []Pause {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Pause(nil), c.pauses...)
}

// Record starts audio capture into a new segment beginning at t.
func (c *Controller) Record(t float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Stopped {
		return &InvalidOperationError{Op: "record", State: c.state}
	}
	if _, err := c.log.BeginAudio(t); err != nil {
		return &InvalidOperationError{Op: "record", State: c.state, Err: err}
	}
	err := c.audio.Record(func(chunk []byte) {
		if err := c.log.AppendAudio(chunk); err != nil {
			internal.LogWarn("dropping audio chunk: %v", err)
		}
	})
	if err != nil {
		c.log.EndAudio()
		return fmt.Errorf("start capture: %w", err)
	}
	c.state = Recording
	internal.LogDebug("recording from %.3fs", t)
	return nil
}

// StopRecording ends capture. The device is stopped, and its in-flight
// chunks flushed, before the segment is closed.
func (c *Controller) StopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Recording {
		return &InvalidOperationError{Op: "stop recording", State: c.state}
	}
	return c.stopRecording()
}

func (c *Controller) stopRecording() error {
	err := c.audio.Stop()
	c.log.EndAudio()
	c.state = Stopped
	internal.LogDebug("recording stopped")
	return err
}

// Play starts playback from the beginning. An active recording is stopped
// first; a call during playback is ignored.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Playing, Paused:
		return nil
	case Recording:
		if err := c.stopRecording(); err != nil {
			return err
		}
	}
	if c.log.IsEmpty() {
		return &InvalidOperationError{Op: "play", State: c.state, Err: ErrEmpty}
	}
	if err := c.audio.PlayInit(c.log.Audio()); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	c.it = c.log.Iter()
	c.earliest = c.log.EarliestTime()
	c.progress = 0
	c.pauses = nil
	c.trail = c.trail[:0]
	c.state = Playing
	internal.LogDebug("playing %d events from %.3fs", c.log.Len(), c.earliest)
	return nil
}

// Pause suspends playback.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Paused:
		return nil
	case Playing:
		c.audio.Pause()
		c.pauses = append(c.pauses, Pause{At: c.progress})
		c.state = Paused
		return nil
	default:
		return &InvalidOperationError{Op: "pause", State: c.state}
	}
}

// Resume continues a paused playback.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Playing:
		return nil
	case Paused:
		c.audio.Unpause()
		c.state = Playing
		return nil
	default:
		return &InvalidOperationError{Op: "resume", State: c.state}
	}
}

// Stop ends playback or recording.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop()
}

func (c *Controller) stop() error {
	switch c.state {
	case Stopped:
		return nil
	case Recording:
		return c.stopRecording()
	}
	err := c.audio.Stop()
	c.state = Stopped
	c.it = nil
	c.progress = 0
	c.pauses = nil
	internal.LogDebug("playback stopped")
	return err
}

// Seek moves playback to offset seconds from the earliest time. From
// Stopped it enters Paused at the new position. The previous cursor is
// discarded.
func (c *Controller) Seek(offset float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Recording:
		return &InvalidOperationError{Op: "seek", State: c.state}
	case Stopped:
		if c.log.IsEmpty() {
			return &InvalidOperationError{Op: "seek", State: c.state, Err: ErrEmpty}
		}
		if err := c.audio.PlayInit(c.log.Audio()); err != nil {
			return fmt.Errorf("seek: %w", err)
		}
		c.earliest = c.log.EarliestTime()
		c.pauses = []Pause{{At: math.Max(offset, 0)}}
		c.audio.Pause()
		c.state = Paused
	}
	offset = math.Max(offset, 0)
	target := offset + c.earliest
	c.it = c.log.EventsToTime(target)
	c.progress = offset
	c.trail = c.trail[:0]
	if s, ok := c.audio.(Seeker); ok {
		s.Seek(target)
	}
	internal.LogDebug("seek to %.3fs", offset)
	return nil
}

// Tick advances playback by delta and dispatches every event that became
// due to sink. Outside Playing it does nothing except account paused time.
// A failure stops playback and is returned as a *TickError.
func (c *Controller) Tick(delta time.Duration, sink Sink) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Paused:
		if n := len(c.pauses); n > 0 {
			c.pauses[n-1].Duration += delta
		}
		return nil
	case Playing:
	default:
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &TickError{Progress: c.progress, Err: err}
			if serr := c.stop(); serr != nil {
				internal.LogWarn("stopping after failed tick: %v", serr)
			}
		}
	}()

	c.progress += delta.Seconds()

	// The audio clock wins over the wall clock.
	if c.audio.IsPlaying() {
		start := c.audio.CurrentSegmentStartTime()
		c.audio.PlayTick(c.progress + c.earliest)
		if played := c.audio.SecondsPlayed(); start >= 0 && played >= 0 {
			c.progress = start + played - c.earliest
		}
	}

	st := c.it.State()
	events, err := c.it.AdvanceTo(c.progress + c.earliest)
	if errors.Is(err, session.ErrRewind) {
		// The audio clock lagged the last target; hold position.
		events, err = nil, nil
	}
	if err != nil {
		return err
	}
	for _, e := range events {
		st.Apply(e)
		c.dispatch(e, st, sink)
	}

	if !c.it.HasNext() && !c.audio.IsPlaying() {
		internal.LogDebug("playback finished at %.3fs", c.progress)
		return c.stop()
	}
	return nil
}

func (c *Controller) dispatch(e session.Event, st session.State, sink Sink) {
	switch ev := e.(type) {
	case *session.Start, *session.Clear:
		if r, ok := sink.(Resizer); ok {
			r.Resize(st.Size)
		}
		sink.Clear()
	case *session.Resize:
		if r, ok := sink.(Resizer); ok {
			r.Resize(st.Size)
		}
	case *session.Click:
		c.trail = append(c.trail[:0], ev.Pos)
		sink.Draw(st.Color, st.Thickness*ev.P, c.trail...)
	case *session.Point:
		c.draw(sink, st, ev.Pos, ev.P)
	case *session.Release:
		c.draw(sink, st, ev.Pos, ev.P)
		c.trail = c.trail[:0]
	case *session.AudioRecord:
		c.audio.Cue(ev.Media)
	case *session.Move, *session.Drag, *session.Color, *session.Thickness,
		*session.End, *session.VideoRecord:
	}
}

func (c *Controller) draw(sink Sink, st session.State, pos session.Pos, p float64) {
	c.trail = append(c.trail, pos)
	if n := len(c.trail); n > 3 {
		c.trail = append(c.trail[:0], c.trail[n-3:]...)
	}
	sink.Draw(st.Color, st.Thickness*p, c.trail...)
}
