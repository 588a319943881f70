package fileio

import "math"

// legacySchema covers 0.1.x, where strokes carry no thickness of their own
// and each point stores a single width-like value.
//
// 0.1.0 and 0.1.1 store thickness×pressure; decoding takes the stroke
// thickness as the mean and divides it back out. 0.1.2 stores pressure/√2
// and its thickness is the mean of the stored values as written; both
// transforms are kept exactly so old files re-encode byte for byte.
type legacySchema struct {
	v      Version
	store  audioFormat
	scaled bool
}

func (s legacySchema) version() Version   { return s.v }
func (s legacySchema) hasAspect() bool    { return false }
func (s legacySchema) audio() audioFormat { return s.store }

func (s legacySchema) field(thickness, pressure float64) float32 {
	if s.scaled {
		return float32(pressure / math.Sqrt2)
	}
	return float32(thickness * pressure)
}

func (s legacySchema) unpack(st *stroke) (float64, []float64) {
	var sum float64
	for _, p := range st.points {
		sum += float64(p.f)
	}
	mean := sum / float64(len(st.points))

	pressure := make([]float64, len(st.points))
	if s.scaled {
		for i, p := range st.points {
			pressure[i] = float64(p.f) * math.Sqrt2
		}
		return mean, pressure
	}

	scale := mean
	if scale == 0 {
		scale = 1
	}
	for i, p := range st.points {
		pressure[i] = float64(p.f) / scale
	}
	return mean, pressure
}

func (s legacySchema) sameThickness(a, b float64) bool {
	return a == b
}
