package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"termseq/grid"
	"termseq/pitch"
)

// GridStyles holds the styles used by GridView.
type GridStyles struct {
	Header    lipgloss.Style
	Gutter    lipgloss.Style
	Note      lipgloss.Style
	Rest      lipgloss.Style
	Cursor    lipgloss.Style
	CursorRow lipgloss.Style
}

// GridSymbols are the runes drawn around the cells.
type GridSymbols struct {
	Cursor   rune
	Beat     rune
	Offbeat  rune
	Overflow rune
}

// GridView renders a window of rows of a grid snapshot, one column per
// channel.
type GridView struct {
	Snapshot    grid.Snapshot
	Channel     int // cursor channel
	Row         int // cursor row
	Top         int // first visible row
	Height      int // visible rows
	RowsPerBeat int
	Headers     []string // optional column titles, one per channel
	Styles      GridStyles
	Symbols     GridSymbols
}

const gutterWidth = 6

// Render draws the header line followed by the visible rows.
func (v GridView) Render() string {
	var lines []string
	lines = append(lines, v.header())

	rows := v.Snapshot.Rows()
	end := v.Top + v.Height
	if end > rows {
		end = rows
	}
	if v.Top > 0 {
		lines = append(lines, v.Styles.Gutter.Render(v.overflow()))
	}
	for row := v.Top; row < end; row++ {
		lines = append(lines, v.row(row))
	}
	if end < rows {
		lines = append(lines, v.Styles.Gutter.Render(v.overflow()))
	}
	return strings.Join(lines, "\n")
}

func (v GridView) header() string {
	var line strings.Builder
	line.WriteString(strings.Repeat(" ", gutterWidth))
	for ch := range v.Snapshot.Channels {
		title := fmt.Sprintf("ch%d", ch+1)
		if ch < len(v.Headers) && v.Headers[ch] != "" {
			title = v.Headers[ch]
		}
		line.WriteString(v.Styles.Header.Render(fitCell(title)))
	}
	return line.String()
}

func (v GridView) row(row int) string {
	var line strings.Builder

	marker := ' '
	if row == v.Row {
		marker = v.Symbols.Cursor
	}
	sep := v.Symbols.Offbeat
	if v.RowsPerBeat > 0 && row%v.RowsPerBeat == 0 {
		sep = v.Symbols.Beat
	}
	line.WriteString(v.Styles.Gutter.Render(fmt.Sprintf("%c%3d%c ", marker, row+1, sep)))

	for ch, cells := range v.Snapshot.Channels {
		sym := cells[row]
		label := " " + pitch.Label(sym, v.Snapshot.Kind(ch)) + " "

		style := v.Styles.Note
		if sym == pitch.Rest {
			style = v.Styles.Rest
		}
		switch {
		case row == v.Row && ch == v.Channel:
			style = v.Styles.Cursor
		case row == v.Row:
			style = v.Styles.CursorRow
		}
		line.WriteString(style.Render(label))
	}
	return line.String()
}

func (v GridView) overflow() string {
	return fmt.Sprintf("%*c", gutterWidth-2, v.Symbols.Overflow)
}

// fitCell pads or truncates s to the rendered cell width.
func fitCell(s string) string {
	w := pitch.LabelWidth + 2
	r := []rune(s)
	if len(r) > w {
		r = r[:w]
	}
	return fmt.Sprintf("%-*s", w, string(r))
}
