package fileio

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/session"
)

// AudioCodec transcodes PCM for schemas that store compressed speech (0.2.0).
// No speech codec ships with the module; callers that have one inject it
// through Options. Without it, speech payloads still round-trip verbatim.
type AudioCodec interface {
	Encode(pcm []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

func (f audioFormat) encoding() session.Encoding {
	switch f {
	case audioZlib:
		return session.EncodingZlib
	case audioSpeex:
		return session.EncodingSpeex
	case audioWAV:
		return session.EncodingWAV
	default:
		return session.EncodingRaw
	}
}

func deflate(pcm []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(pcm); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// readPCM reads a WAV payload, rejecting one sampled at another rate than
// the session's audio.
func readPCM(r io.Reader, opts Options) ([]byte, error) {
	pcm, rate, err := ReadWAV(r)
	if err != nil {
		return nil, err
	}
	if rate != opts.sampleRate() {
		return nil, fmt.Errorf("%w: %d Hz, want %d Hz", ErrSampleRate, rate, opts.sampleRate())
	}
	return pcm, nil
}

// pcmOf returns the segment's PCM, decoding the stored payload when the
// segment was loaded without it.
func pcmOf(seg *session.AudioData, opts Options) ([]byte, error) {
	if seg.Len() > 0 || seg.Encoded() == nil {
		return seg.PCM(), nil
	}
	switch seg.Encoding {
	case session.EncodingZlib:
		return inflate(seg.Encoded())
	case session.EncodingWAV:
		return readPCM(bytes.NewReader(seg.Encoded()), opts)
	case session.EncodingSpeex:
		if opts.Speex == nil {
			return nil, ErrNoCodec
		}
		return opts.Speex.Decode(seg.Encoded())
	default:
		return seg.Encoded(), nil
	}
}

// encodeAudio produces the stored payload of seg for format f. A payload
// loaded in the same encoding is reused unchanged.
func encodeAudio(seg *session.AudioData, f audioFormat, opts Options) ([]byte, error) {
	if enc := seg.Encoded(); enc != nil && seg.Encoding == f.encoding() {
		return enc, nil
	}
	pcm, err := pcmOf(seg, opts)
	if err != nil {
		return nil, fmt.Errorf("audio segment at %.3fs: %w", seg.Start, err)
	}
	switch f {
	case audioZlib:
		return deflate(pcm)
	case audioSpeex:
		if opts.Speex == nil {
			return nil, fmt.Errorf("audio segment at %.3fs: %w", seg.Start, ErrNoCodec)
		}
		return opts.Speex.Encode(pcm)
	case audioWAV:
		var buf bytes.Buffer
		if err := WriteWAV(&buf, pcm, opts.sampleRate()); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return pcm, nil
	}
}

// decodeAudio builds a segment from a stored payload.
func decodeAudio(start float64, data []byte, f audioFormat, opts Options) (*session.AudioData, error) {
	seg := session.NewAudioData(start, f.encoding())
	switch f {
	case audioRaw:
		seg.Append(data)
		return seg, nil
	case audioZlib:
		seg.SetEncoded(data)
		pcm, err := inflate(data)
		if err != nil {
			return nil, &FormatError{Op: "audio", Err: err}
		}
		seg.Append(pcm)
	case audioWAV:
		seg.SetEncoded(data)
		pcm, err := readPCM(bytes.NewReader(data), opts)
		if err != nil {
			return nil, &FormatError{Op: "audio", Err: err}
		}
		seg.Append(pcm)
	case audioSpeex:
		seg.SetEncoded(data)
		if opts.Speex == nil {
			internal.LogWarn("no speech codec configured; audio at %.3fs kept encoded and will not play", start)
			return seg, nil
		}
		pcm, err := opts.Speex.Decode(data)
		if err != nil {
			return nil, &FormatError{Op: "audio", Err: err}
		}
		seg.Append(pcm)
	}
	return seg, nil
}
