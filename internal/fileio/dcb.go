package fileio

import (
	"bufio"
	"io"

	"github.com/iksnae/deskcorder/internal/session"
)

// EncodeBinary writes l as a binary container at version v.
func EncodeBinary(w io.Writer, l *session.Log, v Version, opts Options) error {
	sch, err := schemaFor(v)
	if err != nil {
		return err
	}
	doc, err := buildDocument(l, sch, opts)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}
	writeHeader(e, sch, doc.aspect)
	e.u32(uint32(len(doc.slides)))
	for i := range doc.slides {
		writeSlide(e, sch, &doc.slides[i])
	}
	writeMoves(e, doc.moves)
	if sch.audio() != audioNone {
		e.u32(uint32(len(doc.audio)))
		for i := range doc.audio {
			writeAudioRecord(e, &doc.audio[i])
		}
	}
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

// DecodeBinary reads a binary container. The magic number and version are
// checked before any body bytes are read; on any error no log is returned.
func DecodeBinary(r io.Reader, opts Options) (*session.Log, Version, error) {
	d := &decoder{r: bufio.NewReader(r)}
	sch, aspect, err := readHeader(d)
	if err != nil {
		return nil, Version{}, err
	}
	doc := &document{version: sch.version(), aspect: aspect}

	n := d.u32()
	for i := uint32(0); i < n && d.err == nil; i++ {
		doc.slides = append(doc.slides, readSlide(d, sch))
	}
	if d.err != nil {
		return nil, Version{}, formatErr("slide", d.err)
	}

	doc.moves = readMoves(d)
	if d.err != nil {
		return nil, Version{}, formatErr("moves", d.err)
	}

	if sch.audio() != audioNone {
		n := d.u32()
		for i := uint32(0); i < n && d.err == nil; i++ {
			doc.audio = append(doc.audio, readAudioRecord(d))
		}
		if d.err != nil {
			return nil, Version{}, formatErr("audio", d.err)
		}
	}

	l, err := buildLog(doc, sch, opts)
	if err != nil {
		return nil, Version{}, err
	}
	return l, sch.version(), nil
}
