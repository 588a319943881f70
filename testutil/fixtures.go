package testutil

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/iksnae/deskcorder/internal/session"
)

// MustAppend appends events to l, failing the test on the first rejection.
func MustAppend(t *testing.T, l *session.Log, events ...session.Event) {
	t.Helper()
	for _, e := range events {
		if err := l.Append(e); err != nil {
			t.Fatalf("Failed to append %s at %v: %v", e.Kind(), e.Time(), err)
		}
	}
}

// ScenarioA returns a single stroke on a 500x400 canvas.
func ScenarioA(t *testing.T) *session.Log {
	t.Helper()
	l := session.New()
	MustAppend(t, l,
		&session.Start{T: 0, Size: session.Size{W: 500, H: 400}},
		&session.Click{T: 1, Pos: session.Pos{X: 0.1, Y: 0.1}},
		&session.Point{T: 2, Pos: session.Pos{X: 0.2, Y: 0.2}, P: 1.0},
		&session.Release{T: 3, Pos: session.Pos{X: 0.3, Y: 0.3}},
	)
	return l
}

// Epoch is the start of WallClockLog, a wall-clock timestamp in seconds.
const Epoch = 1.7e9

// WallClockLog returns a session stamped with wall-clock seconds: a start at
// Epoch and one stroke from Epoch+1 to Epoch+2.
func WallClockLog(t *testing.T) *session.Log {
	t.Helper()
	l := session.New()
	MustAppend(t, l,
		&session.Start{T: Epoch, Size: session.Size{W: 400, H: 300}},
		&session.Color{T: Epoch + 1, Color: session.RGB{R: 1}},
		&session.Click{T: Epoch + 1, Pos: session.Pos{X: 0.2, Y: 0.2}, P: 1},
		&session.Point{T: Epoch + 1.5, Pos: session.Pos{X: 0.5, Y: 0.5}, P: 1},
		&session.Release{T: Epoch + 2, Pos: session.Pos{X: 0.8, Y: 0.8}, P: 1},
	)
	return l
}

// SampleLog returns a two-slide session with color and thickness changes,
// pen-up moves and one second of audio starting at t=0.5.
func SampleLog(t *testing.T) *session.Log {
	t.Helper()
	l := session.New()
	seg := session.NewAudioData(0.5, session.EncodingRaw)
	seg.Append(PCM(session.SampleRate / 2))
	seg.Append(PCM(session.SampleRate / 2))
	media := l.AddAudio(seg)

	MustAppend(t, l,
		&session.Start{T: 0, Size: session.Size{W: 800, H: 600}},
		&session.Move{T: 0.25, Pos: session.Pos{X: 0.5, Y: 0.5}},
		&session.AudioRecord{T: 0.5, Media: media},
		&session.Color{T: 1, Color: session.RGB{R: 1}},
		&session.Thickness{T: 1, Value: 0.02},
		&session.Click{T: 1, Pos: session.Pos{X: 0.1, Y: 0.2}, P: 0.5},
		&session.Point{T: 1.1, Pos: session.Pos{X: 0.15, Y: 0.25}, P: 0.75},
		&session.Point{T: 1.2, Pos: session.Pos{X: 0.2, Y: 0.3}, P: 1},
		&session.Release{T: 1.3, Pos: session.Pos{X: 0.25, Y: 0.35}, P: 0.25},
		&session.Move{T: 1.5, Pos: session.Pos{X: 0.6, Y: 0.6}},
		&session.Color{T: 2, Color: session.RGB{G: 0.5, B: 1}},
		&session.Click{T: 2, Pos: session.Pos{X: 0.7, Y: 0.7}, P: 0.5},
		&session.Release{T: 2.4, Pos: session.Pos{X: 0.8, Y: 0.75}, P: 0.5},
		&session.Clear{T: 3, Size: session.Size{W: 800, H: 600}},
		&session.Click{T: 3.5, Pos: session.Pos{X: 0.3, Y: 0.3}, P: 1},
		&session.Point{T: 3.6, Pos: session.Pos{X: 0.35, Y: 0.4}, P: 1},
		&session.Release{T: 3.7, Pos: session.Pos{X: 0.4, Y: 0.5}, P: 1},
		&session.Move{T: 4, Pos: session.Pos{X: 0.9, Y: 0.1}},
	)
	return l
}

// PCM returns n mono S16LE samples of a 440Hz tone.
func PCM(n int) []byte {
	out := make([]byte, n*session.BytesPerSample)
	for i := 0; i < n; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/session.SampleRate))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
