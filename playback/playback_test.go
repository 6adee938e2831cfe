package playback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"termseq/debug"
)

func testSMF(t *testing.T, tempo float64) *smf.SMF {
	t.Helper()
	mf := smf.New()
	mf.TimeFormat = smf.MetricTicks(480)

	var tr smf.Track
	if tempo > 0 {
		tr.Add(0, smf.MetaTempo(tempo))
	}
	tr.Add(0, gomidi.ProgramChange(0, 5))
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(480, gomidi.NoteOff(0, 60))
	tr.Close(0)
	if err := mf.Add(tr); err != nil {
		t.Fatal(err)
	}
	return mf
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		name  string
		tempo float64
		want  time.Duration
	}{
		{"default tempo", 0, 500 * time.Millisecond},
		{"slow", 60, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := schedule(testSMF(t, tt.tempo))
			if err != nil {
				t.Fatal(err)
			}
			if len(plan) != 3 {
				t.Fatalf("got %d messages, want 3", len(plan))
			}
			if plan[0].At != 0 || plan[1].At != 0 {
				t.Errorf("program change and note-on should start at 0, got %v %v", plan[0].At, plan[1].At)
			}
			if plan[2].At != tt.want {
				t.Errorf("note-off at %v, want %v", plan[2].At, tt.want)
			}
		})
	}
}

func TestPerformReleasesHeldNotesOnCancel(t *testing.T) {
	plan, err := schedule(testSMF(t, 0))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var sent []gomidi.Message
	send := func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	}
	wait := func(ctx context.Context, d time.Duration) error {
		if d > 0 {
			// Interrupted in the middle of the note.
			cancel()
		}
		return ctx.Err()
	}

	err = perform(ctx, plan, send, wait)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("perform() = %v, want context.Canceled", err)
	}
	if len(sent) != 3 {
		t.Fatalf("sent %d messages, want program change, note-on and release: %v", len(sent), sent)
	}
	var ch, note uint8
	if !sent[2].GetNoteEnd(&ch, &note) || note != 60 {
		t.Errorf("last message %v is not a note-off for 60", sent[2])
	}
}

func TestPerformLogsReleaseErrors(t *testing.T) {
	plan, err := schedule(testSMF(t, 0))
	if err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(t.TempDir(), "debug.log")
	if err := debug.EnableFile(logPath); err != nil {
		t.Fatal(err)
	}
	defer debug.Disable()

	ctx, cancel := context.WithCancel(context.Background())
	unplugged := errors.New("port unplugged")
	send := func(msg gomidi.Message) error {
		var ch, note uint8
		if msg.GetNoteEnd(&ch, &note) {
			return unplugged
		}
		return nil
	}
	wait := func(ctx context.Context, d time.Duration) error {
		if d > 0 {
			cancel()
		}
		return ctx.Err()
	}

	if err := perform(ctx, plan, send, wait); !errors.Is(err, context.Canceled) {
		t.Fatalf("perform() = %v, want context.Canceled", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "release ch0 note 60") || !strings.Contains(string(data), "port unplugged") {
		t.Errorf("release failure not logged:\n%s", data)
	}
}

func TestPerformComplete(t *testing.T) {
	plan, err := schedule(testSMF(t, 0))
	if err != nil {
		t.Fatal(err)
	}
	var waited time.Duration
	var sent int
	err = perform(context.Background(), plan,
		func(gomidi.Message) error { sent++; return nil },
		func(_ context.Context, d time.Duration) error { waited += d; return nil })
	if err != nil {
		t.Fatal(err)
	}
	if sent != 3 || waited != 500*time.Millisecond {
		t.Errorf("sent %d messages over %v", sent, waited)
	}
}

func TestProcessSynthMissing(t *testing.T) {
	s := NewProcessSynth("termseq-no-such-synth", nil, "")
	err := s.Play(context.Background(), "x.mid")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Play() = %v, want not found error", err)
	}
}

func TestProcessSynthRuns(t *testing.T) {
	var out strings.Builder
	s := NewProcessSynth("sh", []string{"-c", `echo "$1 $2"`, "sh"}, "font.sf2")
	s.Stdout = &out
	if err := s.Play(context.Background(), "song.mid"); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "font.sf2 song.mid" {
		t.Errorf("synth saw %q", got)
	}
}

func TestProcessSynthFailure(t *testing.T) {
	s := NewProcessSynth("sh", []string{"-c", "exit 3", "sh"}, "font.sf2")
	err := s.Play(context.Background(), "song.mid")
	if err == nil || !strings.Contains(err.Error(), "status 3") {
		t.Errorf("Play() = %v, want exit status error", err)
	}
}

func TestProcessSynthCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s := NewProcessSynth("sh", []string{"-c", "sleep 5", "sh"}, "font.sf2")
	start := time.Now()
	err := s.Play(ctx, "song.mid")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Play() = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Errorf("cancelled synth kept running")
	}
}

func TestDefaults(t *testing.T) {
	s := NewProcessSynth("", nil, "")
	if s.Command != DefaultCommand || s.Soundfont != DefaultSoundfont || len(s.Args) != len(DefaultArgs) {
		t.Errorf("defaults not applied: %+v", s)
	}
}
