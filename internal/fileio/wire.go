package fileio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Magic opens every binary container.
var Magic = [8]byte{0x42, 0xFA, 0x32, 0xBA, 0x22, 0xAA, 0xAA, 0xBB}

// maxBlob bounds a single audio record so a corrupt length cannot exhaust memory.
const maxBlob = 1 << 31

// The wire model. Times are milliseconds; the fourth point field is
// interpreted by the schema.
type (
	document struct {
		version Version
		aspect  float32
		slides  []slide
		moves   []move
		audio   []audioRecord
	}
	slide struct {
		clear   uint64
		strokes []stroke
		// blank positions of zero-point strokes, used only while encoding
		blank []int
	}
	stroke struct {
		aspect    float32
		thickness float32
		color     [3]float32
		points    []point
	}
	point struct {
		t    uint64
		x, y float32
		f    float32
	}
	move struct {
		t    uint64
		x, y float32
	}
	audioRecord struct {
		t    uint64
		data []byte
	}
)

// encoder writes little-endian values, remembering the first error.
type encoder struct {
	w   io.Writer
	buf [8]byte
	err error
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.write(e.buf[:8])
}

func (e *encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}

// decoder reads little-endian values, remembering the first error.
type decoder struct {
	r   io.Reader
	buf [8]byte
	err error
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		d.err = err
	}
	return d.buf[:n]
}

func (d *decoder) u32() uint32 {
	b := d.read(4)
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.read(8)
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) f32() float32 {
	return math.Float32frombits(d.u32())
}

func (d *decoder) blob(n uint64) []byte {
	if d.err != nil {
		return nil
	}
	if n > maxBlob {
		d.err = fmt.Errorf("record length %d exceeds limit", n)
		return nil
	}
	var buf bytes.Buffer
	got, err := io.CopyN(&buf, d.r, int64(n))
	if err != nil || uint64(got) != n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		d.err = err
		return nil
	}
	return buf.Bytes()
}

// capacity keeps corrupt counts from preallocating huge slices.
func capacity(n uint32) int {
	const limit = 1 << 12
	if n > limit {
		return limit
	}
	return int(n)
}

// writeHeader writes the magic, the version tuple and, for schemas that
// carry one, the aspect ratio.
func writeHeader(e *encoder, sch schema, aspect float32) {
	e.write(Magic[:])
	v := sch.version()
	e.u32(v.Major)
	e.u32(v.Minor)
	e.u32(v.Patch)
	if sch.hasAspect() {
		e.f32(aspect)
	}
}

// readHeader validates the magic and version before anything else is read.
func readHeader(d *decoder) (schema, float32, error) {
	magic := d.read(len(Magic))
	if d.err != nil {
		return nil, 0, formatErr("header", d.err)
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, 0, &FormatError{Op: "header", Err: ErrBadMagic}
	}
	v := Version{Major: d.u32(), Minor: d.u32(), Patch: d.u32()}
	if d.err != nil {
		return nil, 0, formatErr("header", d.err)
	}
	sch, err := schemaFor(v)
	if err != nil {
		return nil, 0, err
	}
	var aspect float32
	if sch.hasAspect() {
		aspect = d.f32()
	}
	return sch, aspect, formatErr("header", d.err)
}

func writeSlideHeader(e *encoder, s *slide) {
	e.u64(s.clear)
	e.u32(uint32(len(s.strokes)))
}

func readSlideHeader(d *decoder) (clear uint64, strokes uint32) {
	return d.u64(), d.u32()
}

func writeStroke(e *encoder, sch schema, s *stroke) {
	e.u32(uint32(len(s.points)))
	if len(s.points) == 0 {
		return
	}
	if sch.hasAspect() {
		e.f32(s.aspect)
		e.f32(s.thickness)
	}
	for _, c := range s.color {
		e.f32(c)
	}
	for _, p := range s.points {
		e.u64(p.t)
		e.f32(p.x)
		e.f32(p.y)
		e.f32(p.f)
	}
}

func readStroke(d *decoder, sch schema) stroke {
	var s stroke
	n := d.u32()
	if n == 0 || d.err != nil {
		return s
	}
	if sch.hasAspect() {
		s.aspect = d.f32()
		s.thickness = d.f32()
	}
	for i := range s.color {
		s.color[i] = d.f32()
	}
	s.points = make([]point, 0, capacity(n))
	for i := uint32(0); i < n && d.err == nil; i++ {
		s.points = append(s.points, point{t: d.u64(), x: d.f32(), y: d.f32(), f: d.f32()})
	}
	return s
}

func writeSlide(e *encoder, sch schema, s *slide) {
	writeSlideHeader(e, s)
	for i := range s.strokes {
		writeStroke(e, sch, &s.strokes[i])
	}
}

func readSlide(d *decoder, sch schema) slide {
	clear, n := readSlideHeader(d)
	s := slide{clear: clear, strokes: make([]stroke, 0, capacity(n))}
	for i := uint32(0); i < n && d.err == nil; i++ {
		s.strokes = append(s.strokes, readStroke(d, sch))
	}
	return s
}

func writeMoves(e *encoder, moves []move) {
	e.u32(uint32(len(moves)))
	for _, m := range moves {
		e.u64(m.t)
		e.f32(m.x)
		e.f32(m.y)
	}
}

func readMoves(d *decoder) []move {
	n := d.u32()
	moves := make([]move, 0, capacity(n))
	for i := uint32(0); i < n && d.err == nil; i++ {
		moves = append(moves, move{t: d.u64(), x: d.f32(), y: d.f32()})
	}
	return moves
}

func writeAudioRecord(e *encoder, a *audioRecord) {
	e.u64(a.t)
	e.u64(uint64(len(a.data)))
	e.write(a.data)
}

func readAudioRecord(d *decoder) audioRecord {
	t := d.u64()
	n := d.u64()
	return audioRecord{t: t, data: d.blob(n)}
}
