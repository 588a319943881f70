package fileio

// pressureSchema covers 0.2.0 and 0.3.0: strokes carry aspect ratio and
// thickness, points carry pressure. They differ only in audio storage.
type pressureSchema struct {
	v     Version
	store audioFormat
}

func (s pressureSchema) version() Version   { return s.v }
func (s pressureSchema) hasAspect() bool    { return true }
func (s pressureSchema) audio() audioFormat { return s.store }

func (s pressureSchema) field(_, pressure float64) float32 {
	return float32(pressure)
}

func (s pressureSchema) unpack(st *stroke) (float64, []float64) {
	pressure := make([]float64, len(st.points))
	for i, p := range st.points {
		pressure[i] = float64(p.f)
	}
	return float64(st.thickness), pressure
}

func (s pressureSchema) sameThickness(a, b float64) bool {
	return float32(a) == float32(b)
}
