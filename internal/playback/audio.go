package playback

import (
	"fmt"
	"io"
	"sync"

	"github.com/iksnae/deskcorder/internal/session"
)

// Audio is the capture and playback device.
//
// Record delivers PCM chunks to onChunk from the device's own goroutine
// until Stop returns; Stop flushes in-flight chunks and releases the device.
// SecondsPlayed and CurrentSegmentStartTime return -1 when unknown.
type Audio interface {
	Record(onChunk func([]byte)) error
	Stop() error
	Pause()
	Unpause()

	PlayInit(segments []*session.AudioData) error
	// Cue makes segment i the one being played.
	Cue(i int)
	PlayTick(target float64)
	SecondsPlayed() float64
	CurrentSegmentStartTime() float64
	IsPlaying() bool
}

// Seeker is implemented by devices that can reposition playback.
type Seeker interface {
	Seek(t float64)
}

// NewAudio builds the device named by backend: "null" or "memory".
func NewAudio(backend string, rate int) (Audio, error) {
	switch backend {
	case "null":
		return NullAudio{}, nil
	case "memory", "":
		return NewMemoryAudio(rate), nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %q", backend)
	}
}

// NullAudio has no device: it records nothing and never plays.
type NullAudio struct{}

func (NullAudio) Record(func([]byte)) error           { return nil }
func (NullAudio) Stop() error                         { return nil }
func (NullAudio) Pause()                              {}
func (NullAudio) Unpause()                            {}
func (NullAudio) PlayInit([]*session.AudioData) error { return nil }
func (NullAudio) Cue(int)                             {}
func (NullAudio) PlayTick(float64)                    {}
func (NullAudio) SecondsPlayed() float64              { return -1 }
func (NullAudio) CurrentSegmentStartTime() float64    { return -1 }
func (NullAudio) IsPlaying() bool                     { return false }

// MemoryAudio is a software device. Captured PCM is pushed in with Feed;
// playback consumes segment PCM up to the requested target and writes it to
// Out when set.
type MemoryAudio struct {
	// Out receives played PCM. Optional.
	Out io.Writer

	mu        sync.Mutex
	rate      int
	onChunk   func([]byte)
	recording bool
	paused    bool
	segments  []*session.AudioData
	cur       int
	pcm       []byte
	played    int // bytes of pcm consumed
}

// NewMemoryAudio returns a device running at rate samples per second.
func NewMemoryAudio(rate int) *MemoryAudio {
	if rate <= 0 {
		rate = session.SampleRate
	}
	return &MemoryAudio{rate: rate, cur: -1}
}

func (a *MemoryAudio) Record(onChunk func([]byte)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recording {
		return fmt.Errorf("already recording")
	}
	a.onChunk = onChunk
	a.recording = true
	a.paused = false
	return nil
}

// Feed delivers a captured chunk. Chunks arriving while paused or stopped
// are dropped.
func (a *MemoryAudio) Feed(chunk []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.recording || a.paused || len(chunk) == 0 {
		return
	}
	a.onChunk(chunk)
}

func (a *MemoryAudio) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recording = false
	a.onChunk = nil
	a.paused = false
	a.cur = -1
	a.pcm = nil
	a.played = 0
	return nil
}

func (a *MemoryAudio) Pause() {
	a.mu.Lock()
	a.paused = true
	a.mu.Unlock()
}

func (a *MemoryAudio) Unpause() {
	a.mu.Lock()
	a.paused = false
	a.mu.Unlock()
}

func (a *MemoryAudio) PlayInit(segments []*session.AudioData) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments = segments
	a.cur = -1
	a.pcm = nil
	a.played = 0
	return nil
}

func (a *MemoryAudio) Cue(i int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cue(i, 0)
}

func (a *MemoryAudio) cue(i, offset int) {
	if i < 0 || i >= len(a.segments) {
		return
	}
	if i == a.cur {
		return
	}
	pcm := a.segments[i].PCM()
	if len(pcm) == 0 {
		// Still encoded; nothing this device can play.
		return
	}
	a.cur = i
	a.pcm = pcm
	a.played = min(offset, len(pcm))
}

func (a *MemoryAudio) frames(seconds float64) int {
	n := int(seconds * float64(a.rate))
	if n < 0 {
		n = 0
	}
	return n * session.BytesPerSample
}

// PlayTick consumes the current segment up to target, never backward.
func (a *MemoryAudio) PlayTick(target float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cur < 0 || a.paused {
		return
	}
	want := min(a.frames(target-a.segments[a.cur].Start), len(a.pcm))
	if want > a.played {
		if a.Out != nil {
			_, _ = a.Out.Write(a.pcm[a.played:want])
		}
		a.played = want
	}
	if a.played >= len(a.pcm) {
		a.cur = -1
		a.pcm = nil
		a.played = 0
	}
}

// Seek positions playback inside the segment covering t, or stops output
// when t falls between segments.
func (a *MemoryAudio) Seek(t float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur = -1
	a.pcm = nil
	a.played = 0
	for i, seg := range a.segments {
		if t >= seg.Start && t < seg.Start+seg.Duration(a.rate) {
			a.cue(i, a.frames(t-seg.Start))
			return
		}
	}
}

func (a *MemoryAudio) SecondsPlayed() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cur < 0 {
		return -1
	}
	return float64(a.played/session.BytesPerSample) / float64(a.rate)
}

func (a *MemoryAudio) CurrentSegmentStartTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cur < 0 {
		return -1
	}
	return a.segments[a.cur].Start
}

func (a *MemoryAudio) IsPlaying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cur >= 0
}

// Recording reports whether captured chunks are being accepted.
func (a *MemoryAudio) Recording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}
