package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/internal/session"
)

// ErrNoAudio is returned when a session has nothing to put in a WAV file.
var ErrNoAudio = errors.New("session has no audio")

// WAVExporter writes the session's audio as one track. Segments sit at their
// offset from the session's first event with silence between them.
type WAVExporter struct {
	// SampleRate the audio was captured at. Zero means 44100.
	SampleRate int
}

// Export exports a session's audio as WAV
func (e *WAVExporter) Export(l *session.Log, w io.Writer) error {
	rate := e.SampleRate
	if rate <= 0 {
		rate = session.SampleRate
	}
	segs := l.Audio()
	if len(segs) == 0 {
		return ErrNoAudio
	}
	origin := l.EarliestTime()
	var track []byte
	for i, a := range segs {
		pcm := a.PCM()
		if len(pcm) == 0 {
			if len(a.Encoded()) > 0 {
				return fmt.Errorf("audio segment %d: %s payload cannot be decoded", i, a.Encoding)
			}
			continue
		}
		at := int(math.Round((a.Start-origin)*float64(rate))) * session.BytesPerSample
		if at > len(track) {
			track = append(track, make([]byte, at-len(track))...)
		}
		track = append(track, pcm...)
	}
	if len(track) == 0 {
		return ErrNoAudio
	}
	return fileio.WriteWAV(w, track, rate)
}

// Extension returns the file extension for this format
func (e *WAVExporter) Extension() string {
	return "wav"
}
