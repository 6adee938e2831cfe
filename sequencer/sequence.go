package sequencer

import (
	"termseq/grid"
	"termseq/midi"
	"termseq/pitch"
)

const (
	DefaultVelocity        uint8  = 100 // note-on velocity unless configured
	DefaultTicksPerQuarter uint16 = 960
	DefaultRowsPerBeat            = 4
)

// Timing converts grid rows to MIDI ticks.
type Timing struct {
	TicksPerQuarter uint16
	RowsPerBeat     int
}

// Tick returns the start tick of row.
func (t Timing) Tick(row int) uint32 {
	return uint32(row * int(t.TicksPerQuarter) / t.RowsPerBeat)
}

// EndTick returns the tick at which a grid of rows rows ends.
func (t Timing) EndTick(rows int) uint32 {
	return t.Tick(rows)
}

// Sequence converts a grid snapshot into note events, channel by channel and
// in tick order within a channel.
//
// Each channel holds at most one note. A note sounds until a rest or a
// different note replaces it; a repeated symbol of the same pitch keeps the
// note held. A note still sounding after the last row is released at the end
// of the track.
func Sequence(s grid.Snapshot, t Timing, velocity uint8) []midi.Event {
	var events []midi.Event
	for ch := range s.Channels {
		events = append(events, sequenceChannel(s.Channels[ch], uint8(ch), s.Kind(ch), t, velocity)...)
	}
	return events
}

func sequenceChannel(rows []pitch.Symbol, ch uint8, kind pitch.Kind, t Timing, velocity uint8) []midi.Event {
	var events []midi.Event
	var sounding uint8
	held := false

	off := func(tick uint32) {
		events = append(events, midi.Event{Tick: tick, Type: midi.NoteOff, Channel: ch, Note: sounding})
		held = false
	}

	for row, sym := range rows {
		tick := t.Tick(row)
		if sym == pitch.Rest {
			if held {
				off(tick)
			}
			continue
		}
		note, ok := pitch.Lookup(sym, kind)
		if !ok {
			// The editor never stores these; treat like a rest.
			if held {
				off(tick)
			}
			continue
		}
		if held && note == sounding {
			continue
		}
		if held {
			off(tick)
		}
		events = append(events, midi.Event{Tick: tick, Type: midi.NoteOn, Channel: ch, Note: note, Velocity: velocity})
		sounding = note
		held = true
	}
	if held {
		off(t.EndTick(len(rows)))
	}
	return events
}
