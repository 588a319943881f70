package fileio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/session"
	"github.com/iksnae/deskcorder/testutil"
)

func encode(t *testing.T, l *session.Log, v Version, opts Options) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeBinary(&buf, l, v, opts); err != nil {
		t.Fatalf("EncodeBinary(%s) error = %v", v, err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte, opts Options) *session.Log {
	t.Helper()
	l, _, err := DecodeBinary(bytes.NewReader(data), opts)
	if err != nil {
		t.Fatalf("DecodeBinary() error = %v", err)
	}
	return l
}

func TestBinaryRoundTripScenario(t *testing.T) {
	want := testutil.ScenarioA(t)
	got := decode(t, encode(t, want, DefaultVersion, Options{}), Options{})

	if got.Len() != want.Len() {
		t.Fatalf("got %d events, want %d", got.Len(), want.Len())
	}
	for i, w := range want.Events() {
		g := got.At(i)
		if g.Kind() != w.Kind() || g.Time() != w.Time() {
			t.Errorf("event %d = %s@%v, want %s@%v", i, g.Kind(), g.Time(), w.Kind(), w.Time())
		}
	}
	start, ok := got.First().(*session.Start)
	if !ok {
		t.Fatalf("first event = %T, want *session.Start", got.First())
	}
	if ar := start.Size.AspectRatio(); math.Abs(ar-1.25) > tol {
		t.Errorf("Start aspect ratio = %v, want 1.25", ar)
	}
	// Only the aspect ratio is stored; the height comes back as the default.
	if start.Size.H != session.DefaultSize.H || math.Abs(start.Size.W-750) > 1e-3 {
		t.Errorf("Start size = %+v, want 750x600", start.Size)
	}
	comparePens(t, want, got, comparePressure)
}

func TestBinaryRoundTripVersions(t *testing.T) {
	tests := []struct {
		version   Version
		opts      Options
		mode      compareMode
		wantAudio bool
	}{
		{version: V010, mode: compareRadius},
		{version: V011, mode: compareRadius, wantAudio: true},
		{version: V012, mode: comparePressure, wantAudio: true},
		{version: V020, opts: Options{Speex: prefixCodec{}}, mode: comparePressure, wantAudio: true},
		{version: V030, mode: comparePressure, wantAudio: true},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			want := testutil.SampleLog(t)
			got := decode(t, encode(t, want, tt.version, tt.opts), tt.opts)

			comparePens(t, want, got, tt.mode)

			if !tt.wantAudio {
				if n := len(got.Audio()); n != 0 {
					t.Errorf("audio segments = %d, want 0", n)
				}
				return
			}
			if n := len(got.Audio()); n != 1 {
				t.Fatalf("audio segments = %d, want 1", n)
			}
			seg := got.Audio()[0]
			if seg.Start != 0.5 {
				t.Errorf("audio start = %v, want 0.5", seg.Start)
			}
			if !bytes.Equal(seg.PCM(), want.Audio()[0].PCM()) {
				t.Error("audio PCM changed across round trip")
			}
			rec, ok := got.Last(session.KindAudioRecord).(*session.AudioRecord)
			if !ok || rec.T != 0.5 || rec.Media != 0 {
				t.Errorf("AudioRecord = %+v, want t=0.5 media=0", rec)
			}
		})
	}
}

func TestBinaryCurrentVersionKeepsEventKinds(t *testing.T) {
	want := testutil.SampleLog(t)
	got := decode(t, encode(t, want, V030, Options{}), Options{})

	if got.Len() != want.Len() {
		t.Fatalf("got %d events, want %d", got.Len(), want.Len())
	}
	for i, w := range want.Events() {
		if g := got.At(i); g.Kind() != w.Kind() || g.Time() != w.Time() {
			t.Errorf("event %d = %s@%v, want %s@%v", i, g.Kind(), g.Time(), w.Kind(), w.Time())
		}
	}
}

func TestBinaryReencodeIsByteExact(t *testing.T) {
	tests := []struct {
		version Version
		opts    Options
	}{
		{version: V010},
		{version: V011},
		{version: V012},
		{version: V020, opts: Options{Speex: prefixCodec{}}},
		{version: V030},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			first := encode(t, testutil.SampleLog(t), tt.version, tt.opts)
			second := encode(t, decode(t, first, tt.opts), tt.version, tt.opts)
			if !bytes.Equal(first, second) {
				t.Errorf("re-encoded %s file differs (%d vs %d bytes)", tt.version, len(first), len(second))
			}

			blanks := withBlankStrokes(t, first)
			l := decode(t, blanks, tt.opts)
			if n := decode(t, first, tt.opts).Len(); l.Len() != n {
				t.Errorf("blank strokes produced events: got %d, want %d", l.Len(), n)
			}
			if again := encode(t, l, tt.version, tt.opts); !bytes.Equal(blanks, again) {
				t.Errorf("re-encoded %s file with blank strokes differs (%d vs %d bytes)", tt.version, len(blanks), len(again))
			}
		})
	}
}

// withBlankStrokes rewrites an encoded file with zero-point strokes added
// at the start, middle and end of every slide.
func withBlankStrokes(t *testing.T, data []byte) []byte {
	t.Helper()
	d := &decoder{r: bytes.NewReader(data)}
	sch, aspect, err := readHeader(d)
	if err != nil {
		t.Fatalf("readHeader() error = %v", err)
	}
	doc := document{aspect: aspect}
	n := d.u32()
	for i := uint32(0); i < n && d.err == nil; i++ {
		doc.slides = append(doc.slides, readSlide(d, sch))
	}
	doc.moves = readMoves(d)
	if sch.audio() != audioNone {
		n := d.u32()
		for i := uint32(0); i < n && d.err == nil; i++ {
			doc.audio = append(doc.audio, readAudioRecord(d))
		}
	}
	if d.err != nil {
		t.Fatalf("reading body: %v", d.err)
	}

	for i := range doc.slides {
		s := &doc.slides[i]
		s.strokes = slices.Insert(s.strokes, 0, stroke{})
		s.strokes = slices.Insert(s.strokes, (len(s.strokes)+1)/2, stroke{})
		s.strokes = append(s.strokes, stroke{})
	}

	var buf bytes.Buffer
	e := &encoder{w: &buf}
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
		t.Fatalf("writing body: %v", e.err)
	}
	return buf.Bytes()
}

func TestBinarySpeechWithoutCodec(t *testing.T) {
	first := encode(t, testutil.SampleLog(t), V020, Options{Speex: prefixCodec{}})

	l := decode(t, first, Options{})
	seg := l.Audio()[0]
	if seg.Len() != 0 {
		t.Errorf("undecoded speech has %d PCM bytes, want 0", seg.Len())
	}
	if seg.Encoding != session.EncodingSpeex {
		t.Errorf("encoding = %q, want speex", seg.Encoding)
	}

	// Same version: the payload goes back out untouched.
	if second := encode(t, l, V020, Options{}); !bytes.Equal(first, second) {
		t.Error("speech payload was not kept verbatim")
	}

	// Another version needs the PCM.
	var buf bytes.Buffer
	if err := EncodeBinary(&buf, l, V030, Options{}); !errors.Is(err, ErrNoCodec) {
		t.Errorf("EncodeBinary(0.3.0) error = %v, want ErrNoCodec", err)
	}
}

// legacyFile lays out a 0.1.1 file by hand: one slide with one two-point
// red stroke, one move and one zlib audio record.
func legacyFile(t *testing.T, pcm []byte) []byte {
	t.Helper()
	audio, err := deflate(pcm)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	put := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	put(Magic)
	put([3]uint32{0, 1, 1})
	put(uint32(1)) // slides
	put(uint64(0)) // clear time
	put(uint32(1)) // strokes
	put(uint32(2)) // points
	put([3]float32{1, 0, 0})
	put(uint64(1000))
	put([3]float32{0.1, 0.2, 0.04})
	put(uint64(1500))
	put([3]float32{0.3, 0.4, 0.02})
	put(uint32(1)) // moves
	put(uint64(2000))
	put([2]float32{0.5, 0.5})
	put(uint32(1)) // audio records
	put(uint64(0))
	put(uint64(len(audio)))
	buf.Write(audio)
	return buf.Bytes()
}

func TestDecodeLegacyFile(t *testing.T) {
	var logs bytes.Buffer
	internal.SetLogOutput(&logs)
	defer internal.SetLogOutput(nil)

	pcm := testutil.PCM(1000)
	data := legacyFile(t, pcm)

	l, v, err := DecodeBinary(bytes.NewReader(data), Options{})
	if err != nil {
		t.Fatalf("DecodeBinary() error = %v", err)
	}
	if v != V011 {
		t.Errorf("version = %s, want 0.1.1", v)
	}
	if !strings.Contains(logs.String(), "no aspect ratio") {
		t.Errorf("expected a missing aspect ratio warning, got %q", logs.String())
	}

	kinds := []session.Kind{
		session.KindStart, session.KindAudioRecord, session.KindColor,
		session.KindThickness, session.KindClick, session.KindRelease, session.KindMove,
	}
	if l.Len() != len(kinds) {
		t.Fatalf("got %d events, want %d", l.Len(), len(kinds))
	}
	for i, k := range kinds {
		if got := l.At(i).Kind(); got != k {
			t.Errorf("event %d = %s, want %s", i, got, k)
		}
	}

	start := l.At(0).(*session.Start)
	if start.Size != session.DefaultSize {
		t.Errorf("Start size = %+v, want default", start.Size)
	}
	th := l.At(3).(*session.Thickness)
	mean := (float64(float32(0.04)) + float64(float32(0.02))) / 2
	if th.Value != mean {
		t.Errorf("thickness = %v, want %v", th.Value, mean)
	}
	click := l.At(4).(*session.Click)
	if click.T != 1 || !near(click.P*th.Value, float64(float32(0.04))) {
		t.Errorf("click = %+v, want t=1 radius 0.04", click)
	}
	if rel := l.At(5).(*session.Release); rel.T != 1.5 {
		t.Errorf("release time = %v, want 1.5", rel.T)
	}
	if !bytes.Equal(l.Audio()[0].PCM(), pcm) {
		t.Error("audio PCM does not match")
	}

	if again := encode(t, l, V011, Options{}); !bytes.Equal(again, data) {
		t.Error("re-encoded legacy file differs from the original bytes")
	}
}

func TestDecodeSinglePointStroke(t *testing.T) {
	l := session.New()
	testutil.MustAppend(t, l,
		&session.Start{T: 0, Size: session.DefaultSize},
		&session.Click{T: 1, Pos: session.Pos{X: 0.5, Y: 0.5}, P: 1},
		&session.Release{T: 1, Pos: session.Pos{X: 0.5, Y: 0.5}, P: 1},
	)
	first := encode(t, l, V030, Options{})
	got := decode(t, first, Options{})

	if _, ok := got.Last().(*session.Release); !ok {
		t.Fatalf("last event = %T, want *session.Release", got.Last())
	}
	if got.InStroke() {
		t.Error("decoded log left a stroke open")
	}
	if second := encode(t, got, V030, Options{}); !bytes.Equal(first, second) {
		t.Error("single-point stroke did not re-encode as one record")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint32{0, 4, 0})
	buf.WriteString("body that must never be read")

	l, _, err := DecodeBinary(&buf, Options{})
	if l != nil {
		t.Error("a log was returned for an unknown version")
	}
	var ve *VersionError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *VersionError", err)
	}
	if ve.Version != (Version{0, 4, 0}) {
		t.Errorf("VersionError.Version = %s, want 0.4.0", ve.Version)
	}
	if !errors.Is(err, ErrFormat) {
		t.Error("VersionError should match ErrFormat")
	}
}

func TestEncodeRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeBinary(&buf, testutil.ScenarioA(t), Version{1, 0, 0}, Options{})
	var ve *VersionError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *VersionError", err)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written for an unknown version", buf.Len())
	}
}

func TestDecodeBadMagic(t *testing.T) {
	data := encode(t, testutil.ScenarioA(t), V030, Options{})
	data[0] ^= 0xFF

	_, _, err := DecodeBinary(bytes.NewReader(data), Options{})
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Op != "header" {
		t.Fatalf("error = %v, want header FormatError", err)
	}
	if !errors.Is(err, ErrBadMagic) {
		t.Error("error should wrap ErrBadMagic")
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := encode(t, testutil.SampleLog(t), V011, Options{})
	for _, n := range []int{0, 4, len(Magic) + 6, len(Magic) + 12, len(Magic) + 30, len(data) / 2, len(data) - 1} {
		l, _, err := DecodeBinary(bytes.NewReader(data[:n]), Options{})
		if l != nil {
			t.Errorf("truncated at %d: a log was returned", n)
		}
		if !errors.Is(err, ErrFormat) {
			t.Errorf("truncated at %d: error = %v, want a format error", n, err)
		}
	}
}

func TestDecodeCorruptAudioLength(t *testing.T) {
	data := encode(t, testutil.ScenarioA(t), V030, Options{})
	// ScenarioA has no audio; claim one record with an absurd length.
	data = data[:len(data)-4]
	data = binary.LittleEndian.AppendUint32(data, 1)
	data = binary.LittleEndian.AppendUint64(data, 0)
	data = binary.LittleEndian.AppendUint64(data, math.MaxUint64)

	if _, _, err := DecodeBinary(bytes.NewReader(data), Options{}); !errors.Is(err, ErrFormat) {
		t.Errorf("error = %v, want a format error", err)
	}
}
