package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Cursor   rune // ▶ marks the cursor row
	Beat     rune // │ separator on the first row of a beat
	Offbeat  rune // ┆ separator on other rows
	Overflow rune // ⋮ more rows above/below the window
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Cursor:   '▶',
			Beat:     '│',
			Offbeat:  '┆',
			Overflow: '⋮',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // grid cursor text
	RoleSurface = 0.1 // cursor row background
	RoleMuted   = 0.2 // gutter, rests, help
	RoleFG      = 0.4 // notes
	RoleAccent  = 0.5 // header, channel titles
	RoleCursor  = 0.6 // cursor cell background
	RoleActive  = 0.7 // cursor row notes
	RoleWarning = 0.8 // failed status
	RoleSuccess = 1.0 // status messages
)

func (t *Theme) role(pos float64) lipgloss.Color {
	c := t.Palette.Lookup(pos)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

func (t *Theme) BG() lipgloss.Color      { return t.role(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.role(RoleSurface) }
func (t *Theme) Muted() lipgloss.Color   { return t.role(RoleMuted) }
func (t *Theme) FG() lipgloss.Color      { return t.role(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.role(RoleAccent) }
func (t *Theme) Cursor() lipgloss.Color  { return t.role(RoleCursor) }
func (t *Theme) Active() lipgloss.Color  { return t.role(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.role(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.role(RoleSuccess) }
