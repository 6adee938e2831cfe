package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"termseq/debug"
	"termseq/grid"
	"termseq/midi"
	"termseq/playback"
	"termseq/sequencer"
)

// playPattern names the scratch file created by the first Play.
const playPattern = "termseq-play-*.mid"

// ErrNoSynth is returned by Play when no synthesizer is configured.
var ErrNoSynth = errors.New("no synthesizer configured")

// Driver turns a grid into a Standard MIDI File and hands it to a writer or
// a synthesizer.
type Driver struct {
	Timing   sequencer.Timing
	Velocity uint8
	Programs []uint8 // General MIDI program per grid channel, 0 if missing
	Synth    playback.Synth
	TempDir  string // for the scratch file used by Play, os.TempDir() if empty

	playPath string
}

// Detach returns a copy of d that shares no mutable state with it, for use
// off the editing goroutine.
func (d *Driver) Detach() *Driver {
	c := *d
	c.Programs = append([]uint8(nil), d.Programs...)
	c.playPath = ""
	return &c
}

// Build sequences a grid snapshot and lays it out as an SMF1 file: one track
// per grid channel, each starting with its track name and program change.
func (d *Driver) Build(snap grid.Snapshot) (*smf.SMF, error) {
	channels, err := midi.ChannelMap(len(snap.Channels), snap.Percussion)
	if err != nil {
		return nil, err
	}
	if d.Timing.RowsPerBeat < 1 || d.Timing.TicksPerQuarter == 0 {
		return nil, fmt.Errorf("invalid timing %+v", d.Timing)
	}

	velocity := d.Velocity
	if velocity == 0 {
		velocity = sequencer.DefaultVelocity
	}
	events := sequencer.Sequence(snap, d.Timing, velocity)
	byChannel := make([][]midi.Event, len(snap.Channels))
	for _, e := range events {
		byChannel[e.Channel] = append(byChannel[e.Channel], e)
	}

	mf := smf.New()
	mf.TimeFormat = smf.MetricTicks(d.Timing.TicksPerQuarter)
	end := d.Timing.EndTick(snap.Rows())

	for ch, evs := range byChannel {
		out := channels[ch]
		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(trackName(ch, snap)))
		tr.Add(0, gomidi.ProgramChange(out, d.program(ch)))

		// Note-offs come before note-ons at the same tick because the
		// sequencer emits them in that order and the sort is stable.
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Tick < evs[j].Tick
		})
		var last uint32
		for _, e := range evs {
			tr.Add(e.Tick-last, e.Message(out))
			last = e.Tick
		}
		tr.Close(end - last)

		if err := mf.Add(tr); err != nil {
			return nil, fmt.Errorf("add track %d: %w", ch, err)
		}
	}
	debug.Log("export", "built %d tracks, %d events, %d rows", len(byChannel), len(events), snap.Rows())
	return mf, nil
}

func (d *Driver) program(ch int) uint8 {
	if ch < len(d.Programs) {
		return d.Programs[ch] & 0x7f
	}
	return 0
}

func trackName(ch int, snap grid.Snapshot) string {
	if ch == snap.Percussion {
		return fmt.Sprintf("Channel %d (drums)", ch+1)
	}
	return fmt.Sprintf("Channel %d", ch+1)
}

// Export writes the snapshot to path as a Standard MIDI File.
func (d *Driver) Export(snap grid.Snapshot, path string) error {
	mf, err := d.Build(snap)
	if err != nil {
		return err
	}
	if err := mf.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	debug.Log("export", "wrote %s", path)
	return nil
}

// WriteTo writes the raw file bytes to w.
func (d *Driver) WriteTo(snap grid.Snapshot, w io.Writer) error {
	mf, err := d.Build(snap)
	if err != nil {
		return err
	}
	if _, err := mf.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}

// WriteHex writes the file bytes to w as lines of space separated hex.
func (d *Driver) WriteHex(snap grid.Snapshot, w io.Writer) error {
	var buf bytes.Buffer
	if err := d.WriteTo(snap, &buf); err != nil {
		return err
	}
	data := buf.Bytes()
	for len(data) > 0 {
		n := min(16, len(data))
		if _, err := fmt.Fprintf(w, "% x\n", data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// PlayPath returns the scratch file used by Play, or "" before the first
// Play.
func (d *Driver) PlayPath() string {
	return d.playPath
}

// scratch creates the private scratch file on first use.
func (d *Driver) scratch() (string, error) {
	if d.playPath != "" {
		return d.playPath, nil
	}
	f, err := os.CreateTemp(d.TempDir, playPattern)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	d.playPath = f.Name()
	return d.playPath, nil
}

// Play exports the snapshot to the driver's scratch file and blocks while the
// synthesizer plays it. The file is overwritten on later calls.
func (d *Driver) Play(ctx context.Context, snap grid.Snapshot) error {
	if d.Synth == nil {
		return ErrNoSynth
	}
	path, err := d.scratch()
	if err != nil {
		return err
	}
	if err := d.Export(snap, path); err != nil {
		return err
	}
	if err := d.Synth.Play(ctx, path); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Cleanup removes the scratch file left by Play.
func (d *Driver) Cleanup() error {
	if d.playPath == "" {
		return nil
	}
	err := os.Remove(d.playPath)
	d.playPath = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
