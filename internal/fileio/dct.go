package fileio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/iksnae/deskcorder/internal/session"
)

// The flat text container (version 0.0.0) stores points in a fixed
// 640x480 pixel space:
//
//	0.0.0
//	<clear ms> <clear ms> ...
//	x y t_ms r g b width
//	<blank line ends a stroke, a second one ends the slide>
//
// Audio goes to a WAV file next to it.
const (
	textWidth  = 640
	textHeight = 480
)

var textDiagonal = math.Hypot(textWidth, textHeight)

func textSchema() schema {
	return legacySchema{v: V000, store: audioRaw}
}

// EncodeText writes the strokes of l as a flat text container.
func EncodeText(w io.Writer, l *session.Log, opts Options) error {
	doc, err := buildDocument(l, textSchema(), opts)
	if err != nil {
		return err
	}
	return writeText(w, doc)
}

func writeText(w io.Writer, doc *document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, V000)
	clears := make([]string, len(doc.slides))
	for i, s := range doc.slides {
		clears[i] = strconv.FormatUint(s.clear, 10)
	}
	fmt.Fprintln(bw, strings.Join(clears, " "))

	for _, s := range doc.slides {
		for _, st := range s.strokes {
			r, g, b := channel(st.color[0]), channel(st.color[1]), channel(st.color[2])
			for _, p := range st.points {
				fmt.Fprintf(bw, "%s %s %d %d %d %d %s\n",
					formatFloat(float64(p.x)*textWidth),
					formatFloat(float64(p.y)*textHeight),
					p.t, r, g, b,
					formatFloat(float64(p.f)*textDiagonal))
			}
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func channel(c float32) int {
	return int(math.Max(0, math.Min(255, math.Round(255*float64(c)))))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DecodeText reads a flat text container.
func DecodeText(r io.Reader, opts Options) (*session.Log, Version, error) {
	doc, err := readText(r)
	if err != nil {
		return nil, Version{}, err
	}
	l, err := buildLog(doc, textSchema(), opts)
	if err != nil {
		return nil, Version{}, err
	}
	return l, V000, nil
}

func readText(r io.Reader) (*document, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimRight(sc.Text(), "\r"), true
	}
	fail := func(err error) error {
		return &FormatError{Op: "text", Err: fmt.Errorf("line %d: %w", line, err)}
	}

	head, ok := next()
	if !ok {
		return nil, fail(io.ErrUnexpectedEOF)
	}
	v, err := ParseVersion(head)
	if err != nil {
		return nil, fail(err)
	}
	if v != V000 {
		return nil, &VersionError{Version: v}
	}

	clears, ok := next()
	if !ok {
		return nil, fail(io.ErrUnexpectedEOF)
	}
	doc := &document{version: V000}
	for _, f := range strings.Fields(clears) {
		ms, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fail(err)
		}
		doc.slides = append(doc.slides, slide{clear: ms})
	}

	cur := 0
	var st *stroke
	for {
		text, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(text) == "" {
			if st != nil {
				if cur >= len(doc.slides) {
					return nil, fail(errors.New("more slides than clear times"))
				}
				doc.slides[cur].strokes = append(doc.slides[cur].strokes, *st)
				st = nil
			} else {
				cur++
			}
			continue
		}
		if cur >= len(doc.slides) {
			return nil, fail(errors.New("more slides than clear times"))
		}
		p, color, err := parseTextPoint(text)
		if err != nil {
			return nil, fail(err)
		}
		if st == nil {
			st = &stroke{color: color}
		}
		st.points = append(st.points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fail(err)
	}
	if st != nil {
		if cur >= len(doc.slides) {
			return nil, fail(errors.New("more slides than clear times"))
		}
		doc.slides[cur].strokes = append(doc.slides[cur].strokes, *st)
	}
	return doc, nil
}

func parseTextPoint(s string) (point, [3]float32, error) {
	var color [3]float32
	f := strings.Fields(s)
	if len(f) != 7 {
		return point{}, color, fmt.Errorf("want 7 fields, got %d", len(f))
	}
	x, errX := strconv.ParseFloat(f[0], 64)
	y, errY := strconv.ParseFloat(f[1], 64)
	t, errT := strconv.ParseUint(f[2], 10, 64)
	width, errW := strconv.ParseFloat(f[6], 64)
	if err := errors.Join(errX, errY, errT, errW); err != nil {
		return point{}, color, err
	}
	for i := range color {
		c, err := strconv.ParseUint(f[3+i], 10, 8)
		if err != nil {
			return point{}, color, err
		}
		color[i] = float32(c) / 255
	}
	return point{
		t: t,
		x: float32(x / textWidth),
		y: float32(y / textHeight),
		f: float32(width / textDiagonal),
	}, color, nil
}

// sidecarPath is where the text container keeps its audio.
func sidecarPath(path string) string {
	return path + ".wav"
}

func saveText(path string, l *session.Log, opts Options) error {
	doc, err := buildDocument(l, textSchema(), opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeText(&buf, doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}
	if len(doc.audio) == 0 {
		return nil
	}
	f, err := os.Create(sidecarPath(path))
	if err != nil {
		return err
	}
	pcm := sidecarTrack(doc, opts.sampleRate())
	if err := WriteWAV(f, pcm, opts.sampleRate()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sidecarStart is the time the sidecar's first sample plays at.
func sidecarStart(doc *document) uint64 {
	if len(doc.slides) > 0 {
		return doc.slides[0].clear
	}
	return 0
}

// sidecarTrack lays the audio records out on one track starting at
// sidecarStart, with silence in the gaps. Audio from before the start is
// cut.
func sidecarTrack(doc *document, rate int) []byte {
	origin := int64(sidecarStart(doc))
	var track []byte
	for _, a := range doc.audio {
		data := a.data
		offset := (int64(a.t) - origin) * int64(rate) / 1000 * session.BytesPerSample
		if offset < 0 {
			data = data[min(int64(len(data)), -offset):]
			offset = 0
		}
		if gap := offset - int64(len(track)); gap > 0 {
			track = append(track, make([]byte, gap)...)
		}
		track = append(track, data...)
	}
	return track
}

func loadText(path string, opts Options) (*session.Log, Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Version{}, err
	}
	defer f.Close()
	doc, err := readText(f)
	if err != nil {
		return nil, Version{}, err
	}

	if wav, err := os.Open(sidecarPath(path)); err == nil {
		pcm, err := readPCM(wav, opts)
		wav.Close()
		if err != nil {
			return nil, Version{}, &FormatError{Path: sidecarPath(path), Op: "audio", Err: err}
		}
		doc.audio = append(doc.audio, audioRecord{t: sidecarStart(doc), data: pcm})
	}

	l, err := buildLog(doc, textSchema(), opts)
	if err != nil {
		return nil, Version{}, err
	}
	return l, V000, nil
}
