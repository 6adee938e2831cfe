package grid

import (
	"fmt"

	"termseq/pitch"
)

// NoPercussion disables the percussion channel.
const NoPercussion = -1

// Grid is the channel x row matrix of symbols plus the edit cursor.
//
// Every channel always has the same number of rows. All mutations go through
// the methods in editor.go, which apply row count changes to every channel at
// once.
type Grid struct {
	channels   [][]pitch.Symbol
	percussion int

	channel int // cursor channel
	row     int // cursor row
}

// New creates a grid with n channels and a single all-rest row. percussion is
// the index of the percussion channel, or NoPercussion.
func New(n, percussion int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("grid needs at least one channel, got %d", n)
	}
	if percussion != NoPercussion && (percussion < 0 || percussion >= n) {
		return nil, fmt.Errorf("percussion channel %d out of range [0, %d)", percussion, n)
	}
	g := &Grid{
		channels:   make([][]pitch.Symbol, n),
		percussion: percussion,
	}
	for i := range g.channels {
		g.channels[i] = []pitch.Symbol{pitch.Rest}
	}
	return g, nil
}

// FromSnapshot builds a grid holding the contents of s with the cursor at
// the top left. A rest row is appended if the last row holds a note.
func FromSnapshot(s Snapshot) (*Grid, error) {
	g, err := New(len(s.Channels), s.Percussion)
	if err != nil {
		return nil, err
	}
	rows := s.Rows()
	for ch, cells := range s.Channels {
		if len(cells) != rows {
			return nil, fmt.Errorf("channel %d has %d rows, channel 0 has %d", ch, len(cells), rows)
		}
		for row, sym := range cells {
			if !pitch.Valid(sym, s.Kind(ch)) {
				return nil, fmt.Errorf("channel %d row %d: %q is not a %s key", ch, row, rune(sym), s.Kind(ch))
			}
		}
	}
	if rows == 0 {
		return g, nil
	}
	for ch, cells := range s.Channels {
		g.channels[ch] = append([]pitch.Symbol(nil), cells...)
	}
	for _, cells := range g.channels {
		if cells[rows-1] != pitch.Rest {
			g.appendRow()
			break
		}
	}
	return g, nil
}

// Channels returns the number of channels.
func (g *Grid) Channels() int {
	return len(g.channels)
}

// Rows returns the shared row count.
func (g *Grid) Rows() int {
	return len(g.channels[0])
}

// Percussion returns the percussion channel index or NoPercussion.
func (g *Grid) Percussion() int {
	return g.percussion
}

// Kind returns the pitch mapping used by channel ch.
func (g *Grid) Kind(ch int) pitch.Kind {
	if ch == g.percussion {
		return pitch.Percussion
	}
	return pitch.Melodic
}

// Cell returns the symbol at (ch, row).
func (g *Grid) Cell(ch, row int) pitch.Symbol {
	return g.channels[ch][row]
}

// Cursor returns the current (channel, row).
func (g *Grid) Cursor() (channel, row int) {
	return g.channel, g.row
}

// Snapshot is a read-only copy of the grid contents handed to the sequencer.
type Snapshot struct {
	Channels   [][]pitch.Symbol
	Percussion int
}

// Kind returns the pitch mapping used by channel ch of the snapshot.
func (s Snapshot) Kind(ch int) pitch.Kind {
	if ch == s.Percussion {
		return pitch.Percussion
	}
	return pitch.Melodic
}

// Rows returns the shared row count of the snapshot.
func (s Snapshot) Rows() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Snapshot deep-copies the grid contents.
func (g *Grid) Snapshot() Snapshot {
	s := Snapshot{
		Channels:   make([][]pitch.Symbol, len(g.channels)),
		Percussion: g.percussion,
	}
	for i, c := range g.channels {
		s.Channels[i] = append([]pitch.Symbol(nil), c...)
	}
	return s
}

// Window returns the first visible row for a view of height rows so that the
// cursor stays on screen. top is the previous first visible row.
func (g *Grid) Window(top, height int) int {
	if height < 1 {
		height = 1
	}
	if g.row < top {
		top = g.row
	}
	if g.row >= top+height {
		top = g.row - height + 1
	}
	if top > g.Rows()-height {
		top = g.Rows() - height
	}
	if top < 0 {
		top = 0
	}
	return top
}

// Check verifies the equal-length and cursor invariants.
func (g *Grid) Check() error {
	rows := len(g.channels[0])
	if rows < 1 {
		return fmt.Errorf("grid has no rows")
	}
	for i, c := range g.channels {
		if len(c) != rows {
			return fmt.Errorf("channel %d has %d rows, channel 0 has %d", i, len(c), rows)
		}
	}
	if g.channel < 0 || g.channel >= len(g.channels) {
		return fmt.Errorf("cursor channel %d out of range", g.channel)
	}
	if g.row < 0 || g.row >= rows {
		return fmt.Errorf("cursor row %d out of range", g.row)
	}
	return nil
}
