package fileio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/deskcorder/testutil"
)

func TestXMLRoundTrip(t *testing.T) {
	want := testutil.SampleLog(t)
	var buf bytes.Buffer
	if err := EncodeXML(&buf, want, Options{}); err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}
	out := buf.String()
	for _, s := range []string{`<document version="0.1.1">`, `color="#ff0000"`, `<audiofile`} {
		if !strings.Contains(out, s) {
			t.Errorf("XML output missing %q", s)
		}
	}

	got, v, err := DecodeXML(&buf, Options{})
	if err != nil {
		t.Fatalf("DecodeXML() error = %v", err)
	}
	if v != V011 {
		t.Errorf("version = %s, want 0.1.1", v)
	}
	comparePens(t, want, got, compareRadius)
	if len(got.Audio()) != 1 || !bytes.Equal(got.Audio()[0].PCM(), want.Audio()[0].PCM()) {
		t.Error("audio did not survive the XML round trip")
	}
}

func TestXMLRejects(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		version   bool
		wantOp    string
		wantError error
	}{
		{
			name:    "no version",
			doc:     `<document><slide cleartime="0"></slide></document>`,
			version: true,
		},
		{
			name:    "newer version",
			doc:     `<document version="0.2.0"></document>`,
			version: true,
		},
		{
			name:   "bad color",
			doc:    `<document version="0.1.1"><slide cleartime="0"><stroke color="red"><point x="0" y="0" time="1" thickness="0.01"/></stroke></slide></document>`,
			wantOp: "stroke",
		},
		{
			name:   "negative time",
			doc:    `<document version="0.1.1"><position x="0" y="0" time="-1"/></document>`,
			wantOp: "moves",
		},
		{
			name:   "not xml",
			doc:    `deskcorder`,
			wantOp: "header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, err := DecodeXML(strings.NewReader(tt.doc), Options{})
			if l != nil {
				t.Error("a log was returned")
			}
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("error = %v, want a format error", err)
			}
			if tt.version {
				var ve *VersionError
				if !errors.As(err, &ve) {
					t.Errorf("error = %v, want *VersionError", err)
				}
				return
			}
			var fe *FormatError
			if !errors.As(err, &fe) || fe.Op != tt.wantOp {
				t.Errorf("error = %v, want %s FormatError", err, tt.wantOp)
			}
		})
	}
}

func TestColorString(t *testing.T) {
	tests := []struct {
		in   [3]float32
		want string
	}{
		{[3]float32{0, 0, 0}, "#000000"},
		{[3]float32{1, 0.5, 0}, "#ff8000"},
		{[3]float32{2, -1, 0.2}, "#ff0033"},
	}
	for _, tt := range tests {
		if got := colorString(tt.in); got != tt.want {
			t.Errorf("colorString(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
	c, err := parseColor("#ff8000")
	if err != nil || c[0] != 1 || c[2] != 0 {
		t.Errorf("parseColor(#ff8000) = %v, %v", c, err)
	}
}
