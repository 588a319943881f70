package fileio

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/iksnae/deskcorder/internal/session"
)

// The legacy XML container stores 0.1.x strokes: no aspect ratio, a
// "thickness" per point holding thickness×pressure, and base64 WAV audio.
type (
	xmlDocument struct {
		XMLName   xml.Name      `xml:"document"`
		Version   string        `xml:"version,attr"`
		Slides    []xmlSlide    `xml:"slide"`
		Positions []xmlPosition `xml:"position"`
		Audio     []xmlAudio    `xml:"audiofile"`
	}
	xmlSlide struct {
		ClearTime float64     `xml:"cleartime,attr"`
		Strokes   []xmlStroke `xml:"stroke"`
	}
	xmlStroke struct {
		Color  string     `xml:"color,attr"`
		Points []xmlPoint `xml:"point"`
	}
	xmlPoint struct {
		X         float32 `xml:"x,attr"`
		Y         float32 `xml:"y,attr"`
		Time      float64 `xml:"time,attr"`
		Thickness float32 `xml:"thickness,attr"`
	}
	xmlPosition struct {
		X    float32 `xml:"x,attr"`
		Y    float32 `xml:"y,attr"`
		Time float64 `xml:"time,attr"`
	}
	xmlAudio struct {
		Time     float64 `xml:"time,attr"`
		Type     string  `xml:"type,attr"`
		Encoding string  `xml:"encoding,attr"`
		Data     string  `xml:",chardata"`
	}
)

func xmlSchema(v Version) (schema, error) {
	switch v {
	case V010, V011:
		return legacySchema{v: v, store: audioWAV}, nil
	default:
		return nil, &VersionError{Version: v}
	}
}

func colorString(c [3]float32) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, ch := range c {
		v := math.Round(255 * float64(ch))
		v = math.Max(0, math.Min(255, v))
		fmt.Fprintf(&b, "%02x", int(v))
	}
	return b.String()
}

func parseColor(s string) ([3]float32, error) {
	var c [3]float32
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	for i := range c {
		n, err := strconv.ParseUint(s[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return c, fmt.Errorf("invalid color %q: %w", s, err)
		}
		c[i] = float32(n) / 255
	}
	return c, nil
}

// EncodeXML writes l as a 0.1.1 XML container.
func EncodeXML(w io.Writer, l *session.Log, opts Options) error {
	sch, _ := xmlSchema(V011)
	doc, err := buildDocument(l, sch, opts)
	if err != nil {
		return err
	}

	out := xmlDocument{Version: V011.String()}
	for _, s := range doc.slides {
		xs := xmlSlide{ClearTime: fromMillis(s.clear)}
		for _, st := range s.strokes {
			xst := xmlStroke{Color: colorString(st.color)}
			for _, p := range st.points {
				xst.Points = append(xst.Points, xmlPoint{X: p.x, Y: p.y, Time: fromMillis(p.t), Thickness: p.f})
			}
			xs.Strokes = append(xs.Strokes, xst)
		}
		out.Slides = append(out.Slides, xs)
	}
	for _, m := range doc.moves {
		out.Positions = append(out.Positions, xmlPosition{X: m.x, Y: m.y, Time: fromMillis(m.t)})
	}
	for _, a := range doc.audio {
		out.Audio = append(out.Audio, xmlAudio{
			Time:     fromMillis(a.t),
			Type:     "wav",
			Encoding: "base64",
			Data:     base64.StdEncoding.EncodeToString(a.data),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// DecodeXML reads a 0.1.0 or 0.1.1 XML container.
func DecodeXML(r io.Reader, opts Options) (*session.Log, Version, error) {
	var in xmlDocument
	if err := xml.NewDecoder(r).Decode(&in); err != nil {
		return nil, Version{}, &FormatError{Op: "header", Err: err}
	}
	v := V000
	if in.Version != "" {
		var err error
		if v, err = ParseVersion(in.Version); err != nil {
			return nil, Version{}, &FormatError{Op: "header", Err: err}
		}
	}
	sch, err := xmlSchema(v)
	if err != nil {
		return nil, Version{}, err
	}

	doc := &document{version: v}
	for _, xs := range in.Slides {
		clear, err := toMillis(xs.ClearTime)
		if err != nil {
			return nil, Version{}, &FormatError{Op: "slide", Err: err}
		}
		s := slide{clear: clear}
		for _, xst := range xs.Strokes {
			color, err := parseColor(xst.Color)
			if err != nil {
				return nil, Version{}, &FormatError{Op: "stroke", Err: err}
			}
			st := stroke{color: color}
			for _, p := range xst.Points {
				ms, err := toMillis(p.Time)
				if err != nil {
					return nil, Version{}, &FormatError{Op: "stroke", Err: err}
				}
				st.points = append(st.points, point{t: ms, x: p.X, y: p.Y, f: p.Thickness})
			}
			s.strokes = append(s.strokes, st)
		}
		doc.slides = append(doc.slides, s)
	}
	for _, p := range in.Positions {
		ms, err := toMillis(p.Time)
		if err != nil {
			return nil, Version{}, &FormatError{Op: "moves", Err: err}
		}
		doc.moves = append(doc.moves, move{t: ms, x: p.X, y: p.Y})
	}
	for _, a := range in.Audio {
		if a.Encoding != "" && a.Encoding != "base64" {
			return nil, Version{}, &FormatError{Op: "audio", Err: fmt.Errorf("unsupported audio encoding %q", a.Encoding)}
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.Data))
		if err != nil {
			return nil, Version{}, &FormatError{Op: "audio", Err: err}
		}
		ms, err := toMillis(a.Time)
		if err != nil {
			return nil, Version{}, &FormatError{Op: "audio", Err: err}
		}
		doc.audio = append(doc.audio, audioRecord{t: ms, data: data})
	}

	l, err := buildLog(doc, sch, opts)
	if err != nil {
		return nil, Version{}, err
	}
	return l, v, nil
}
