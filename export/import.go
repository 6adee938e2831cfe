package export

import (
	"fmt"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"termseq/debug"
	"termseq/grid"
	"termseq/midi"
	"termseq/pitch"
)

// Imported is a MIDI file laid out on a grid.
type Imported struct {
	Snapshot grid.Snapshot
	Programs map[int]uint8 // grid channel -> last program change in the file
	Dropped  int           // notes with no channel or key to land on
}

type span struct {
	start, end int64
	note       uint8
}

// Import reads a Standard MIDI File into a grid of channels channels, with
// rowsPerBeat rows per quarter note. MIDI channels are assigned the same way
// Build assigns them, so an exported file imports back unchanged.
//
// Each grid channel holds one note at a time: a note starting while another
// sounds replaces it from its start row on. Back-to-back notes of the same
// pitch merge into one held note.
func Import(path string, channels, percussion, rowsPerBeat int) (*Imported, error) {
	if rowsPerBeat < 1 {
		return nil, fmt.Errorf("rows per beat must be positive, got %d", rowsPerBeat)
	}
	chmap, err := midi.ChannelMap(channels, percussion)
	if err != nil {
		return nil, err
	}
	slot := make(map[uint8]int, len(chmap))
	for ch, out := range chmap {
		slot[out] = ch
	}

	mf, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ticks, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported time format %v", path, mf.TimeFormat)
	}
	perQuarter := int64(ticks.Ticks4th())

	imp := &Imported{Programs: map[int]uint8{}}
	spans := make([][]span, channels)
	for _, tr := range mf.Tracks {
		open := map[[2]uint8]int64{}
		var tick int64
		closeNote := func(ch, note uint8, at int64) {
			k := [2]uint8{ch, note}
			start, ok := open[k]
			if !ok {
				return
			}
			delete(open, k)
			if gch, ok := slot[ch]; ok {
				spans[gch] = append(spans[gch], span{start, at, note})
			} else {
				imp.Dropped++
			}
		}
		for _, ev := range tr {
			tick += int64(ev.Delta)
			msg := gomidi.Message(ev.Message)
			var ch, a, b uint8
			switch {
			case msg.GetNoteStart(&ch, &a, &b):
				closeNote(ch, a, tick)
				open[[2]uint8{ch, a}] = tick
			case msg.GetNoteEnd(&ch, &a):
				closeNote(ch, a, tick)
			case msg.GetProgramChange(&ch, &a):
				if gch, ok := slot[ch]; ok {
					imp.Programs[gch] = a
				}
			}
		}
		for k := range open {
			closeNote(k[0], k[1], tick)
		}
	}

	row := func(t int64) int {
		return int((t*int64(rowsPerBeat) + perQuarter/2) / perQuarter)
	}
	rows := 1
	for _, ss := range spans {
		for _, s := range ss {
			if r := row(s.end) + 1; r > rows {
				rows = r
			}
			if r := row(s.start) + 2; r > rows {
				rows = r
			}
		}
	}

	snap := grid.Snapshot{Channels: make([][]pitch.Symbol, channels), Percussion: percussion}
	for gch, ss := range spans {
		cells := make([]pitch.Symbol, rows)
		for i := range cells {
			cells[i] = pitch.Rest
		}
		sort.SliceStable(ss, func(i, j int) bool { return ss[i].start < ss[j].start })
		filled := 0 // end of the cells written so far
		for _, s := range ss {
			sym, ok := pitch.SymbolFor(s.note, snap.Kind(gch))
			if !ok {
				imp.Dropped++
				continue
			}
			from, to := row(s.start), row(s.end)
			if to <= from {
				to = from + 1
			}
			for r := from; r < to; r++ {
				cells[r] = sym
			}
			for r := to; r < filled; r++ {
				cells[r] = pitch.Rest
			}
			filled = to
		}
		snap.Channels[gch] = cells
	}
	imp.Snapshot = snap

	debug.Log("import", "%s: %d rows, %d notes dropped", path, rows, imp.Dropped)
	return imp, nil
}
