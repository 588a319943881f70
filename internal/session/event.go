// Package session holds the event-sourced model of a recorded drawing
// session: the typed events, the append-only log that owns them, and the
// forward-only iterator used to replay it.
package session

import (
	"fmt"
	"math"
)

// Kind identifies the concrete type of an Event.
type Kind int

const (
	KindClick Kind = iota
	KindPoint
	KindRelease
	KindMove
	KindDrag
	KindColor
	KindThickness
	KindClear
	KindStart
	KindEnd
	KindResize
	KindAudioRecord
	KindVideoRecord
)

var kindNames = [...]string{
	KindClick:       "click",
	KindPoint:       "point",
	KindRelease:     "release",
	KindMove:        "move",
	KindDrag:        "drag",
	KindColor:       "color",
	KindThickness:   "thickness",
	KindClear:       "clear",
	KindStart:       "start",
	KindEnd:         "end",
	KindResize:      "resize",
	KindAudioRecord: "audio",
	KindVideoRecord: "video",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Pos is a position normalized to the canvas, both axes in [0,1].
type Pos struct {
	X, Y float64
}

// RGB is a color with each channel in [0,1].
type RGB struct {
	R, G, B float64
}

// Size is a canvas size in pixels.
type Size struct {
	W, H float64
}

// AspectRatio returns W/H, or 0 for a degenerate size.
func (s Size) AspectRatio() float64 {
	if s.H == 0 {
		return 0
	}
	return s.W / s.H
}

// Diagonal returns the length of the canvas diagonal in pixels.
func (s Size) Diagonal() float64 {
	return math.Hypot(s.W, s.H)
}

// SizeFromAspect guesses a canvas size for an aspect ratio, keeping the
// default height.
func SizeFromAspect(ar float64) Size {
	if ar <= 0 {
		return DefaultSize
	}
	return Size{W: ar * DefaultSize.H, H: DefaultSize.H}
}

var (
	Black            = RGB{}
	DefaultSize      = Size{W: 800, H: 600}
	DefaultThickness = 0.01
)

// Event is one entry of a Log. The set of implementations is closed.
//
//sumtype:decl
type Event interface {
	Time() float64
	Kind() Kind
	sealed()
}

// Click opens a stroke.
type Click struct {
	T   float64
	Pos Pos
	P   float64
}

// Point continues an open stroke.
type Point struct {
	T   float64
	Pos Pos
	P   float64
}

// Release closes a stroke.
type Release struct {
	T   float64
	Pos Pos
	P   float64
}

// Move is pen-up motion.
type Move struct {
	T   float64
	Pos Pos
}

// Drag moves a previously recorded event, identified by its log index.
type Drag struct {
	T      float64
	Pos    Pos
	Target int
}

type Color struct {
	T     float64
	Color RGB
}

// Thickness is the pen width relative to the canvas diagonal.
type Thickness struct {
	T     float64
	Value float64
}

type Clear struct {
	T    float64
	Size Size
	// Blank holds the positions of zero-point strokes a stored file had on
	// this slide, so they can be written back.
	Blank []int
}

type Start struct {
	T     float64
	Size  Size
	Blank []int
}

type End struct {
	T    float64
	Size Size
}

type Resize struct {
	T    float64
	Size Size
}

// AudioRecord marks the start of an audio segment; Media indexes Log.Audio().
type AudioRecord struct {
	T     float64
	Media int
}

type VideoRecord struct {
	T     float64
	Media int
}

func (e *Click) Time() float64       { return e.T }
func (e *Point) Time() float64       { return e.T }
func (e *Release) Time() float64     { return e.T }
func (e *Move) Time() float64        { return e.T }
func (e *Drag) Time() float64        { return e.T }
func (e *Color) Time() float64       { return e.T }
func (e *Thickness) Time() float64   { return e.T }
func (e *Clear) Time() float64       { return e.T }
func (e *Start) Time() float64       { return e.T }
func (e *End) Time() float64         { return e.T }
func (e *Resize) Time() float64      { return e.T }
func (e *AudioRecord) Time() float64 { return e.T }
func (e *VideoRecord) Time() float64 { return e.T }

func (*Click) Kind() Kind       { return KindClick }
func (*Point) Kind() Kind       { return KindPoint }
func (*Release) Kind() Kind     { return KindRelease }
func (*Move) Kind() Kind        { return KindMove }
func (*Drag) Kind() Kind        { return KindDrag }
func (*Color) Kind() Kind       { return KindColor }
func (*Thickness) Kind() Kind   { return KindThickness }
func (*Clear) Kind() Kind       { return KindClear }
func (*Start) Kind() Kind       { return KindStart }
func (*End) Kind() Kind         { return KindEnd }
func (*Resize) Kind() Kind      { return KindResize }
func (*AudioRecord) Kind() Kind { return KindAudioRecord }
func (*VideoRecord) Kind() Kind { return KindVideoRecord }

func (*Click) sealed()       {}
func (*Point) sealed()       {}
func (*Release) sealed()     {}
func (*Move) sealed()        {}
func (*Drag) sealed()        {}
func (*Color) sealed()       {}
func (*Thickness) sealed()   {}
func (*Clear) sealed()       {}
func (*Start) sealed()       {}
func (*End) sealed()         {}
func (*Resize) sealed()      {}
func (*AudioRecord) sealed() {}
func (*VideoRecord) sealed() {}

// PositionOf returns the canvas position carried by mouse events.
func PositionOf(e Event) (Pos, bool) {
	switch ev := e.(type) {
	case *Click:
		return ev.Pos, true
	case *Point:
		return ev.Pos, true
	case *Release:
		return ev.Pos, true
	case *Move:
		return ev.Pos, true
	case *Drag:
		return ev.Pos, true
	default:
		return Pos{}, false
	}
}

// IsBoundary reports whether e starts a new slide.
func IsBoundary(e Event) bool {
	switch e.(type) {
	case *Clear, *Start:
		return true
	default:
		return false
	}
}
