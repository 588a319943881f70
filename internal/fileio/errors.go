package fileio

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every FormatError and VersionError via errors.Is.
	ErrFormat = errors.New("format error")
	// ErrReserved is returned for the archive container, which has no layout yet.
	ErrReserved = errors.New("archive container is reserved")
	// ErrNoCodec is returned when audio must be transcoded through a codec
	// that was not configured.
	ErrNoCodec = errors.New("audio codec not available")
	// ErrSampleRate is returned for WAV audio at a rate other than the
	// session's.
	ErrSampleRate = errors.New("unexpected sample rate")
	// ErrBadMagic is wrapped by the FormatError for a wrong file signature.
	ErrBadMagic = errors.New("bad magic number")
)

// FormatError reports a malformed or truncated file.
type FormatError struct {
	Path string
	Op   string // "header", "slide", "stroke", "moves", "audio", "events"
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("format error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("format error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// VersionError reports a version tuple outside the supported set.
type VersionError struct {
	Version Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unrecognized version: %s", e.Version)
}

func (e *VersionError) Is(target error) bool {
	return target == ErrFormat
}

func formatErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FormatError
	var ve *VersionError
	if errors.As(err, &fe) || errors.As(err, &ve) {
		return err
	}
	return &FormatError{Op: op, Err: err}
}

// withPath fills in the path of a FormatError that does not carry one yet.
func withPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		fe.Path = path
	}
	return err
}
