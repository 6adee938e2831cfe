package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a timed note event produced by the sequencer.
type Event struct {
	Tick     uint32 // absolute tick from the start of the track
	Type     uint8  // NoteOn, NoteOff
	Channel  uint8  // grid channel index
	Note     uint8
	Velocity uint8
}

// Message converts the event to a wire message on the given MIDI channel.
func (e Event) Message(channel uint8) gomidi.Message {
	if e.Type == NoteOn {
		return gomidi.NoteOn(channel, e.Note, e.Velocity)
	}
	return gomidi.NoteOff(channel, e.Note)
}

func (e Event) String() string {
	kind := "off"
	if e.Type == NoteOn {
		kind = "on"
	}
	return fmt.Sprintf("%d:ch%d:%s:%d:%d", e.Tick, e.Channel, kind, e.Note, e.Velocity)
}
