package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iksnae/deskcorder/internal/session"
)

// CSVExporter writes one row per stroke: x, y and time in milliseconds for
// each pen sample, in an 800x600 pixel space. Repeated positions are skipped.
type CSVExporter struct{}

const (
	csvWidth  = 800
	csvHeight = 600
)

// Export exports a session's strokes as CSV
func (e *CSVExporter) Export(l *session.Log, w io.Writer) error {
	cw := csv.NewWriter(w)
	var (
		row  []string
		last *session.Pos
	)
	sample := func(t float64, pos session.Pos) {
		if last != nil && *last == pos {
			return
		}
		row = append(row,
			strconv.Itoa(int(pos.X*csvWidth)),
			strconv.Itoa(int(pos.Y*csvHeight)),
			strconv.Itoa(int(t*1000)))
		last = &pos
	}

	it := l.Iter()
	for {
		ev, ok := it.Step()
		if !ok {
			break
		}
		switch ev := ev.(type) {
		case *session.Click:
			row, last = row[:0], nil
			sample(ev.T, ev.Pos)
		case *session.Point:
			sample(ev.T, ev.Pos)
		case *session.Release:
			sample(ev.T, ev.Pos)
			if err := cw.Write(row); err != nil {
				return err
			}
			row = row[:0]
		default:
		}
	}
	cw.Flush()
	return cw.Error()
}

// Extension returns the file extension for this format
func (e *CSVExporter) Extension() string {
	return "csv"
}
