package fileio

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/deskcorder/internal/session"
)

const manifestName = "manifest.yaml"

// manifest is the directory container's metadata file.
type manifest struct {
	Magic   string  `yaml:"magic"`
	Version string  `yaml:"version"`
	Aspect  float32 `yaml:"aspect_ratio,omitempty"`
	Slides  int     `yaml:"slides"`
	Audio   int     `yaml:"audio"`
}

func slideDir(root string, i int) string {
	return filepath.Join(root, fmt.Sprintf("slide%03d", i))
}

func strokeFile(root string, slide, stroke int) string {
	return filepath.Join(slideDir(root, slide), fmt.Sprintf("stroke%03d", stroke))
}

func audioFile(root string, i int) string {
	return filepath.Join(root, fmt.Sprintf("audio%03d", i))
}

func writeChunk(path string, fn func(e *encoder)) error {
	var buf bytes.Buffer
	e := &encoder{w: &buf}
	fn(e)
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func readChunk(path, op string, fn func(d *decoder)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FormatError{Path: path, Op: op, Err: err}
	}
	d := &decoder{r: bytes.NewReader(data)}
	fn(d)
	if d.err != nil {
		return &FormatError{Path: path, Op: op, Err: d.err}
	}
	return nil
}

// EncodeDirectory writes l as a directory container rooted at root. An
// existing directory is replaced only if it is itself a directory container,
// and only once the new container has been written in full beside it.
func EncodeDirectory(root string, l *session.Log, v Version, opts Options) error {
	sch, err := schemaFor(v)
	if err != nil {
		return err
	}
	doc, err := buildDocument(l, sch, opts)
	if err != nil {
		return err
	}

	exists := false
	if _, err := os.Stat(root); err == nil {
		if _, err := os.Stat(filepath.Join(root, manifestName)); err != nil {
			return fmt.Errorf("refusing to replace %s: not a directory container", root)
		}
		exists = true
	}

	parent, base := filepath.Dir(root), filepath.Base(root)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	if err := os.Chmod(tmp, 0755); err != nil {
		return err
	}
	if err := fillDirectory(tmp, sch, doc, v); err != nil {
		return err
	}

	if !exists {
		return os.Rename(tmp, root)
	}
	old := tmp + ".old"
	if err := os.Rename(root, old); err != nil {
		return err
	}
	if err := os.Rename(tmp, root); err != nil {
		if rerr := os.Rename(old, root); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return os.RemoveAll(old)
}

// fillDirectory lays doc out under root. Tests swap it to fail mid-save.
var fillDirectory = writeDirectory

func writeDirectory(root string, sch schema, doc *document, v Version) error {
	m := manifest{
		Magic:   hex.EncodeToString(Magic[:]),
		Version: v.String(),
		Slides:  len(doc.slides),
		Audio:   len(doc.audio),
	}
	if sch.hasAspect() {
		m.Aspect = doc.aspect
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(root, manifestName), data, 0644); err != nil {
		return err
	}

	for i := range doc.slides {
		s := &doc.slides[i]
		if err := os.MkdirAll(slideDir(root, i), 0755); err != nil {
			return err
		}
		if err := writeChunk(filepath.Join(slideDir(root, i), "header"), func(e *encoder) {
			writeSlideHeader(e, s)
		}); err != nil {
			return err
		}
		for j := range s.strokes {
			if err := writeChunk(strokeFile(root, i, j), func(e *encoder) {
				writeStroke(e, sch, &s.strokes[j])
			}); err != nil {
				return err
			}
		}
	}

	if err := writeChunk(filepath.Join(root, "moves"), func(e *encoder) {
		writeMoves(e, doc.moves)
	}); err != nil {
		return err
	}

	for i := range doc.audio {
		if err := writeChunk(audioFile(root, i), func(e *encoder) {
			writeAudioRecord(e, &doc.audio[i])
		}); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDirectory reads a directory container. The manifest's magic and
// version are validated before any other file is opened.
func DecodeDirectory(root string, opts Options) (*session.Log, Version, error) {
	manifestPath := filepath.Join(root, manifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, Version{}, &FormatError{Path: root, Op: "header", Err: err}
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, Version{}, &FormatError{Path: manifestPath, Op: "header", Err: err}
	}
	if m.Magic != hex.EncodeToString(Magic[:]) {
		return nil, Version{}, &FormatError{Path: manifestPath, Op: "header", Err: ErrBadMagic}
	}
	v, err := ParseVersion(m.Version)
	if err != nil {
		return nil, Version{}, &FormatError{Path: manifestPath, Op: "header", Err: err}
	}
	sch, err := schemaFor(v)
	if err != nil {
		return nil, Version{}, err
	}
	if m.Slides < 0 || m.Audio < 0 {
		return nil, Version{}, &FormatError{Path: manifestPath, Op: "header", Err: errors.New("negative count")}
	}

	doc := &document{version: v, aspect: m.Aspect}
	for i := 0; i < m.Slides; i++ {
		var (
			s slide
			n uint32
		)
		if err := readChunk(filepath.Join(slideDir(root, i), "header"), "slide", func(d *decoder) {
			s.clear, n = readSlideHeader(d)
		}); err != nil {
			return nil, Version{}, err
		}
		for j := 0; j < int(n); j++ {
			if err := readChunk(strokeFile(root, i, j), "stroke", func(d *decoder) {
				s.strokes = append(s.strokes, readStroke(d, sch))
			}); err != nil {
				return nil, Version{}, err
			}
		}
		doc.slides = append(doc.slides, s)
	}

	if err := readChunk(filepath.Join(root, "moves"), "moves", func(d *decoder) {
		doc.moves = readMoves(d)
	}); err != nil {
		return nil, Version{}, err
	}

	if sch.audio() != audioNone {
		for i := 0; i < m.Audio; i++ {
			if err := readChunk(audioFile(root, i), "audio", func(d *decoder) {
				doc.audio = append(doc.audio, readAudioRecord(d))
			}); err != nil {
				return nil, Version{}, err
			}
		}
	}

	l, err := buildLog(doc, sch, opts)
	if err != nil {
		return nil, Version{}, withPath(err, root)
	}
	return l, v, nil
}
