package session

import "sync"

// Encoding tags how an audio segment's payload is stored.
type Encoding string

const (
	EncodingRaw   Encoding = "raw"
	EncodingWAV   Encoding = "wav"
	EncodingMP3   Encoding = "mp3"
	EncodingSpeex Encoding = "speex"
	EncodingZlib  Encoding = "zlib"
)

// PCM format of captured audio: mono, signed 16-bit little endian.
const (
	SampleRate     = 44100
	BytesPerSample = 2
)

// AudioData is one audio segment. Chunks hold PCM; the encoded payload, when
// set, is the segment as it was read from disk and is written back verbatim
// by codecs using the same encoding.
type AudioData struct {
	Start    float64
	Encoding Encoding

	mu      sync.Mutex
	chunks  [][]byte
	encoded []byte
}

// NewAudioData returns an empty segment starting at t.
func NewAudioData(start float64, enc Encoding) *AudioData {
	return &AudioData{Start: start, Encoding: enc}
}

// Append copies chunk onto the end of the segment.
func (a *AudioData) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	a.mu.Lock()
	a.chunks = append(a.chunks, c)
	a.mu.Unlock()
}

// PCM returns the chunks concatenated.
func (a *AudioData) PCM() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range a.chunks {
		out = append(out, c...)
	}
	return out
}

// Len returns the PCM length in bytes.
func (a *AudioData) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.chunks {
		n += len(c)
	}
	return n
}

// Duration returns the PCM length in seconds at the given sample rate.
func (a *AudioData) Duration(rate int) float64 {
	if rate <= 0 {
		rate = SampleRate
	}
	return float64(a.Len()) / float64(rate*BytesPerSample)
}

// SetEncoded records the on-disk payload for this segment's Encoding.
func (a *AudioData) SetEncoded(b []byte) {
	a.mu.Lock()
	a.encoded = b
	a.mu.Unlock()
}

// Encoded returns the payload set by SetEncoded, or nil.
func (a *AudioData) Encoded() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.encoded
}
