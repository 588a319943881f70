package fileio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/deskcorder/internal/session"
	"github.com/iksnae/deskcorder/testutil"
)

// strokesOnly is a two-slide log without pen-up moves, which the text
// container does not keep.
func strokesOnly(t *testing.T) *session.Log {
	t.Helper()
	l := session.New()
	testutil.MustAppend(t, l,
		&session.Start{T: 0, Size: session.DefaultSize},
		&session.Color{T: 1, Color: session.RGB{R: 1, G: 0.5}},
		&session.Thickness{T: 1, Value: 0.02},
		&session.Click{T: 1, Pos: session.Pos{X: 0.125, Y: 0.25}, P: 0.5},
		&session.Point{T: 1.1, Pos: session.Pos{X: 0.2, Y: 0.3}, P: 1},
		&session.Release{T: 1.2, Pos: session.Pos{X: 0.3, Y: 0.4}, P: 0.75},
		&session.Clear{T: 2, Size: session.DefaultSize},
		&session.Clear{T: 3, Size: session.DefaultSize},
		&session.Click{T: 3.5, Pos: session.Pos{X: 0.5, Y: 0.5}, P: 1},
		&session.Release{T: 3.6, Pos: session.Pos{X: 0.6, Y: 0.6}, P: 1},
	)
	return l
}

func TestTextRoundTrip(t *testing.T) {
	want := strokesOnly(t)
	var buf bytes.Buffer
	if err := EncodeText(&buf, want, Options{}); err != nil {
		t.Fatalf("EncodeText() error = %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "0.0.0" || lines[1] != "0 2000 3000" {
		t.Errorf("text header = %q", lines[:2])
	}
	// 640x480 pixels; width is thickness×pressure scaled to the diagonal.
	if !strings.HasPrefix(lines[2], "80 120 1000 255 128 0 ") {
		t.Errorf("first point line = %q", lines[2])
	}

	got, v, err := DecodeText(&buf, Options{})
	if err != nil {
		t.Fatalf("DecodeText() error = %v", err)
	}
	if v != V000 {
		t.Errorf("version = %s, want 0.0.0", v)
	}
	comparePens(t, want, got, compareRadius)

	var clears int
	for _, e := range got.Events() {
		if e.Kind() == session.KindClear {
			clears++
		}
	}
	if clears != 2 {
		t.Errorf("clears = %d, want 2 (the empty slide must survive)", clears)
	}
}

func TestTextSidecarAudio(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(testutil.CreateTempDir(t), "lecture.dct")

	l := strokesOnly(t)
	seg := session.NewAudioData(0, session.EncodingRaw)
	seg.Append(testutil.PCM(4410))
	l.AddAudio(seg)

	if err := Save(ctx, path, l, Options{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".wav"); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}

	got, _, err := Load(ctx, path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Audio()) != 1 || !bytes.Equal(got.Audio()[0].PCM(), seg.PCM()) {
		t.Error("sidecar audio did not round trip")
	}
}

func TestTextSidecarKeepsTimeline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(testutil.CreateTempDir(t), "gaps.dct")

	l := strokesOnly(t)
	tone := testutil.PCM(4410)
	for _, start := range []float64{0.5, 2} {
		seg := session.NewAudioData(start, session.EncodingRaw)
		seg.Append(tone)
		l.AddAudio(seg)
	}
	if err := Save(ctx, path, l, Options{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, _, err := Load(ctx, path, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Audio()) != 1 {
		t.Fatalf("audio segments = %d, want 1", len(got.Audio()))
	}
	seg := got.Audio()[0]
	if seg.Start != 0 {
		t.Errorf("sidecar start = %v, want 0", seg.Start)
	}
	pcm := seg.PCM()
	first := session.SampleRate / 2 * session.BytesPerSample
	second := 2 * session.SampleRate * session.BytesPerSample
	if len(pcm) != second+len(tone) {
		t.Fatalf("track is %d bytes, want %d", len(pcm), second+len(tone))
	}
	if !bytes.Equal(pcm[:first], make([]byte, first)) {
		t.Error("lead-in before the first segment is not silent")
	}
	if !bytes.Equal(pcm[first:first+len(tone)], tone) {
		t.Error("first segment moved")
	}
	if !bytes.Equal(pcm[first+len(tone):second], make([]byte, second-first-len(tone))) {
		t.Error("gap between segments is not silent")
	}
	if !bytes.Equal(pcm[second:], tone) {
		t.Error("second segment moved")
	}
}

func TestTextSidecarSampleRate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(testutil.CreateTempDir(t), "rate.dct")
	if err := Save(ctx, path, strokesOnly(t), Options{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	var wav bytes.Buffer
	if err := WriteWAV(&wav, testutil.PCM(100), 22050); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".wav", wav.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	l, _, err := Load(ctx, path, Options{})
	if l != nil {
		t.Error("a log was returned")
	}
	if !errors.Is(err, ErrSampleRate) {
		t.Errorf("Load() error = %v, want ErrSampleRate", err)
	}
	if _, _, err := Load(ctx, path, Options{SampleRate: 22050}); err != nil {
		t.Errorf("Load(22050 Hz) error = %v", err)
	}
}

func TestTextRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "binary version", text: "0.3.0\n0\n"},
		{name: "short point", text: "0.0.0\n0\n1 2 3\n"},
		{name: "bad clear", text: "0.0.0\nzero\n"},
		{name: "too many slides", text: "0.0.0\n0\n\n1 1 1000 0 0 0 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, err := DecodeText(strings.NewReader(tt.text), Options{})
			if l != nil {
				t.Error("a log was returned")
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("error = %v, want a format error", err)
			}
		})
	}
}
