package fileio

// audioFormat is how a schema stores audio record payloads.
type audioFormat int

const (
	audioNone audioFormat = iota
	audioZlib
	audioSpeex
	audioRaw
	audioWAV
)

// schema maps one on-disk version onto the in-memory model. Each supported
// version has exactly one implementation; legacy quirks stay inside it.
type schema interface {
	version() Version
	// hasAspect reports whether the header and each stroke carry an aspect
	// ratio (and strokes a separate thickness).
	hasAspect() bool
	audio() audioFormat
	// field computes the fourth point field from the stroke thickness and
	// the point pressure.
	field(thickness, pressure float64) float32
	// unpack recovers the stroke thickness and per-point pressures.
	unpack(s *stroke) (thickness float64, pressure []float64)
	// sameThickness reports whether two thicknesses encode identically.
	sameThickness(a, b float64) bool
}

func schemaFor(v Version) (schema, error) {
	switch v {
	case V010:
		return legacySchema{v: V010, store: audioNone}, nil
	case V011:
		return legacySchema{v: V011, store: audioZlib}, nil
	case V012:
		return legacySchema{v: V012, store: audioZlib, scaled: true}, nil
	case V020:
		return pressureSchema{v: V020, store: audioSpeex}, nil
	case V030:
		return pressureSchema{v: V030, store: audioRaw}, nil
	default:
		return nil, &VersionError{Version: v}
	}
}
