package grid

import "termseq/pitch"

// MoveCursorChannel moves the cursor across channels, clamped to the grid.
func (g *Grid) MoveCursorChannel(delta int) {
	g.channel = clamp(g.channel+delta, 0, len(g.channels)-1)
}

// MoveCursorRow moves the cursor through time, clamped to the grid.
func (g *Grid) MoveCursorRow(delta int) {
	g.row = clamp(g.row+delta, 0, g.Rows()-1)
}

// SetCell writes sym at the cursor and advances one row. Symbols that are not
// valid for the cursor channel are ignored and SetCell returns false.
//
// Writing at the last row first appends a rest row to every channel, so the
// grid always ends in a rest row past the last written note.
func (g *Grid) SetCell(sym pitch.Symbol) bool {
	if !pitch.Valid(sym, g.Kind(g.channel)) {
		return false
	}
	if g.row == g.Rows()-1 {
		g.appendRow()
	}
	g.channels[g.channel][g.row] = sym
	g.row++
	return true
}

// ClearCell writes a rest at the cursor without moving it.
func (g *Grid) ClearCell() {
	g.channels[g.channel][g.row] = pitch.Rest
}

// InsertAt inserts an all-rest row before row in every channel. The cursor
// stays on the same content.
func (g *Grid) InsertAt(row int) {
	row = clamp(row, 0, g.Rows()-1)
	for i, c := range g.channels {
		c = append(c, pitch.Rest)
		copy(c[row+1:], c[row:])
		c[row] = pitch.Rest
		g.channels[i] = c
	}
	if g.row >= row {
		g.row++
	}
	g.clampCursor()
}

// DeleteAt removes row from every channel. The trailing rest row and the row
// before it are never removed directly; deleting either of them behaves like
// Backspace.
func (g *Grid) DeleteAt(row int) {
	rows := g.Rows()
	if rows <= 1 || row < 0 || row >= rows {
		return
	}
	if row >= rows-2 {
		g.Backspace()
		return
	}
	g.removeRow(row)
	if g.row > row {
		g.row--
	}
	g.clampCursor()
}

// Backspace removes the second-to-last row from every channel. With exactly
// two rows left it resets row 0 of every channel before the cursor channel
// instead of shrinking the grid.
func (g *Grid) Backspace() {
	switch rows := g.Rows(); {
	case rows > 2:
		g.removeRow(rows - 2)
	case rows == 2:
		for ch := 0; ch < g.channel; ch++ {
			g.channels[ch][0] = pitch.Rest
		}
	}
	g.clampCursor()
}

func (g *Grid) appendRow() {
	for i := range g.channels {
		g.channels[i] = append(g.channels[i], pitch.Rest)
	}
}

func (g *Grid) removeRow(row int) {
	for i, c := range g.channels {
		g.channels[i] = append(c[:row], c[row+1:]...)
	}
}

func (g *Grid) clampCursor() {
	g.channel = clamp(g.channel, 0, len(g.channels)-1)
	g.row = clamp(g.row, 0, g.Rows()-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
