package playback

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/deskcorder/internal/session"
	"github.com/iksnae/deskcorder/testutil"
)

func TestNewAudio(t *testing.T) {
	tests := []struct {
		backend string
		want    any
		wantErr bool
	}{
		{backend: "null", want: NullAudio{}},
		{backend: "memory", want: &MemoryAudio{}},
		{backend: "", want: &MemoryAudio{}},
		{backend: "alsa", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			a, err := NewAudio(tt.backend, 8000)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAudio(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch tt.want.(type) {
			case NullAudio:
				if _, ok := a.(NullAudio); !ok {
					t.Errorf("NewAudio(%q) = %T, want NullAudio", tt.backend, a)
				}
			case *MemoryAudio:
				m, ok := a.(*MemoryAudio)
				if !ok {
					t.Fatalf("NewAudio(%q) = %T, want *MemoryAudio", tt.backend, a)
				}
				if m.rate != 8000 {
					t.Errorf("rate = %d, want 8000", m.rate)
				}
			}
		})
	}
}

func TestRecordCapturesAudio(t *testing.T) {
	l := session.New()
	audio := NewMemoryAudio(0)
	c := NewController(l, audio)

	if err := c.Record(0); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	first, dropped, second := testutil.PCM(100), []byte{9, 9, 9, 9}, testutil.PCM(50)
	audio.Feed(first)
	audio.Pause()
	audio.Feed(dropped)
	audio.Unpause()
	audio.Feed(second)

	if err := c.StopRecording(); err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	audio.Feed(dropped)

	segs := l.Audio()
	if len(segs) != 1 {
		t.Fatalf("segments = %d, want 1", len(segs))
	}
	want := append(append([]byte(nil), first...), second...)
	if !bytes.Equal(segs[0].PCM(), want) {
		t.Errorf("captured %d bytes, want %d", segs[0].Len(), len(want))
	}
	if rec, ok := l.Last(session.KindAudioRecord).(*session.AudioRecord); !ok || rec.Media != 0 {
		t.Errorf("AudioRecord = %+v", l.Last(session.KindAudioRecord))
	}
	if c.State() != Stopped {
		t.Errorf("State() = %s, want stopped", c.State())
	}
}

func TestRecordConcurrentCapture(t *testing.T) {
	l := session.New()
	audio := NewMemoryAudio(0)
	c := NewController(l, audio)
	if err := c.Record(0); err != nil {
		t.Fatal(err)
	}

	chunk := testutil.PCM(32)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				audio.Feed(chunk)
				_ = c.State()
			}
		}()
	}
	time.Sleep(time.Millisecond)
	if err := c.StopRecording(); err != nil {
		t.Fatal(err)
	}
	n := l.Audio()[0].Len()
	wg.Wait()

	if got := l.Audio()[0].Len(); got != n {
		t.Errorf("segment grew from %d to %d bytes after StopRecording", n, got)
	}
	if n%len(chunk) != 0 {
		t.Errorf("captured %d bytes, not a whole number of chunks", n)
	}
}

func TestMemoryAudioPlayback(t *testing.T) {
	pcm := testutil.PCM(1000)
	seg := session.NewAudioData(2, session.EncodingRaw)
	seg.Append(pcm)

	var out bytes.Buffer
	a := NewMemoryAudio(1000)
	a.Out = &out
	if err := a.PlayInit([]*session.AudioData{seg}); err != nil {
		t.Fatal(err)
	}
	if a.IsPlaying() || a.SecondsPlayed() != -1 || a.CurrentSegmentStartTime() != -1 {
		t.Fatal("device reports playback before any cue")
	}

	a.Cue(0)
	a.PlayTick(2.25)
	if got := a.SecondsPlayed(); got != 0.25 {
		t.Errorf("SecondsPlayed() = %v, want 0.25", got)
	}
	if got := a.CurrentSegmentStartTime(); got != 2 {
		t.Errorf("CurrentSegmentStartTime() = %v, want 2", got)
	}

	a.Pause()
	a.PlayTick(2.5)
	if got := a.SecondsPlayed(); got != 0.25 {
		t.Errorf("paused device advanced to %v", got)
	}
	a.Unpause()

	a.PlayTick(2.1) // never backward
	if got := a.SecondsPlayed(); got != 0.25 {
		t.Errorf("SecondsPlayed() = %v after an earlier target", got)
	}

	a.PlayTick(5)
	if a.IsPlaying() {
		t.Error("device still playing past the segment end")
	}
	if !bytes.Equal(out.Bytes(), pcm) {
		t.Errorf("played %d bytes, want %d", out.Len(), len(pcm))
	}
}

func TestMemoryAudioSeek(t *testing.T) {
	a := NewMemoryAudio(1000)
	seg := session.NewAudioData(1, session.EncodingRaw)
	seg.Append(testutil.PCM(1000))
	if err := a.PlayInit([]*session.AudioData{seg}); err != nil {
		t.Fatal(err)
	}

	a.Seek(1.5)
	if !a.IsPlaying() || a.SecondsPlayed() != 0.5 {
		t.Errorf("after Seek(1.5): playing=%v played=%v", a.IsPlaying(), a.SecondsPlayed())
	}
	// A cue for the segment already playing keeps the position.
	a.Cue(0)
	if got := a.SecondsPlayed(); got != 0.5 {
		t.Errorf("Cue reset the position to %v", got)
	}

	a.Seek(3)
	if a.IsPlaying() {
		t.Error("Seek past the segment left it playing")
	}
}

func TestMemoryAudioSkipsEncodedSegments(t *testing.T) {
	seg := session.NewAudioData(0, session.EncodingSpeex)
	seg.SetEncoded([]byte("opaque"))
	a := NewMemoryAudio(0)
	if err := a.PlayInit([]*session.AudioData{seg}); err != nil {
		t.Fatal(err)
	}
	a.Cue(0)
	if a.IsPlaying() {
		t.Error("device plays a segment it cannot decode")
	}
}

func TestPlaybackWithMemoryAudio(t *testing.T) {
	l := testutil.SampleLog(t)
	var out bytes.Buffer
	audio := NewMemoryAudio(0)
	audio.Out = &out
	c := NewController(l, audio)
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}

	sink := &recordSink{}
	for i := 0; i < 200 && c.State() == Playing; i++ {
		if err := c.Tick(50*time.Millisecond, sink); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if c.State() != Stopped {
		t.Fatalf("State() = %s, want stopped", c.State())
	}
	if !bytes.Equal(out.Bytes(), l.Audio()[0].PCM()) {
		t.Errorf("played %d bytes, want %d", out.Len(), l.Audio()[0].Len())
	}
	if sink.clears != 2 || len(sink.draws) != 9 {
		t.Errorf("clears=%d draws=%d, want 2 and 9", sink.clears, len(sink.draws))
	}
}
