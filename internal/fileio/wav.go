package fileio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/iksnae/deskcorder/internal/session"
)

var errNotWAV = errors.New("not a RIFF/WAVE stream")

type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// WriteWAV writes mono S16LE pcm as a RIFF/WAVE stream.
func WriteWAV(w io.Writer, pcm []byte, rate int) error {
	if rate <= 0 {
		rate = session.SampleRate
	}
	fmtChunk := wavFormat{
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate * session.BytesPerSample),
		BlockAlign:    session.BytesPerSample,
		BitsPerSample: 8 * session.BytesPerSample,
	}
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(4 + 8 + 16 + 8 + len(pcm)),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		fmtChunk,
		[4]byte{'d', 'a', 't', 'a'},
		uint32(len(pcm)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	_, err := w.Write(pcm)
	return err
}

// ReadWAV reads a PCM RIFF/WAVE stream and returns its samples and rate.
func ReadWAV(r io.Reader) ([]byte, int, error) {
	var riff struct {
		ID   [4]byte
		Size uint32
		Wave [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return nil, 0, fmt.Errorf("read wav header: %w", err)
	}
	if string(riff.ID[:]) != "RIFF" || string(riff.Wave[:]) != "WAVE" {
		return nil, 0, errNotWAV
	}

	var format *wavFormat
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			return nil, 0, fmt.Errorf("read wav chunk: %w", err)
		}
		switch string(chunk.ID[:]) {
		case "fmt ":
			var f wavFormat
			if chunk.Size < 16 {
				return nil, 0, fmt.Errorf("wav fmt chunk too short: %d", chunk.Size)
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return nil, 0, fmt.Errorf("read wav fmt: %w", err)
			}
			if _, err := io.CopyN(io.Discard, r, int64(chunk.Size-16)); err != nil {
				return nil, 0, err
			}
			if f.AudioFormat != 1 || f.BitsPerSample != 16 {
				return nil, 0, fmt.Errorf("unsupported wav encoding: format %d, %d bits", f.AudioFormat, f.BitsPerSample)
			}
			format = &f
		case "data":
			if format == nil {
				return nil, 0, errors.New("wav data chunk before fmt chunk")
			}
			pcm := make([]byte, 0, capacity(chunk.Size))
			buf := make([]byte, 32*1024)
			remaining := int64(chunk.Size)
			for remaining > 0 {
				n := int64(len(buf))
				if remaining < n {
					n = remaining
				}
				if _, err := io.ReadFull(r, buf[:n]); err != nil {
					return nil, 0, fmt.Errorf("read wav data: %w", err)
				}
				pcm = append(pcm, buf[:n]...)
				remaining -= n
			}
			return pcm, int(format.SampleRate), nil
		default:
			skip := int64(chunk.Size) + int64(chunk.Size%2)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, 0, fmt.Errorf("skip wav chunk %q: %w", chunk.ID[:], err)
			}
		}
	}
}
