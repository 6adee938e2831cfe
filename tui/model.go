package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termseq/config"
	"termseq/debug"
	"termseq/export"
	"termseq/grid"
	"termseq/pitch"
	"termseq/theme"
	"termseq/widgets"
)

// lines taken by everything except the grid rows
const chrome = 8

type Model struct {
	Grid   *grid.Grid
	Driver *export.Driver
	Config *config.Config
	Theme  *theme.Theme

	top      int
	height   int
	status   string
	failed   bool
	playing  bool
	showHelp bool
	quitting bool
}

// PlayDoneMsg reports the end of a playback started with ctrl+p.
type PlayDoneMsg struct {
	Err error
}

// ExportedMsg reports the result of a ctrl+s export.
type ExportedMsg struct {
	Path string
	Err  error
}

func NewModel(g *grid.Grid, driver *export.Driver, cfg *config.Config, th *theme.Theme) Model {
	height := cfg.UI.VisibleRows
	if height < 1 {
		height = config.DefaultConfig().UI.VisibleRows
	}
	return Model{
		Grid:   g,
		Driver: driver,
		Config: cfg,
		Theme:  th,
		height: height,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.height = msg.Height - chrome
		if limit := m.Config.UI.VisibleRows; limit > 0 && m.height > limit {
			m.height = limit
		}
		if m.height < 1 {
			m.height = 1
		}

	case PlayDoneMsg:
		m.playing = false
		switch {
		case msg.Err == nil:
			m.setStatus("playback finished")
		case errors.Is(msg.Err, context.Canceled):
			m.setStatus("playback stopped")
		default:
			debug.Error("tui", msg.Err)
			m.setError(msg.Err)
		}

	case ExportedMsg:
		if msg.Err != nil {
			debug.Error("tui", msg.Err)
			m.setError(msg.Err)
		} else {
			m.setStatus("wrote " + msg.Path)
		}
	}

	m.top = m.Grid.Window(m.top, m.height)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	key := msg.String()

	switch key {
	case "ctrl+c", "ctrl+q":
		m.quitting = true
		return m, tea.Quit

	case "up":
		m.Grid.MoveCursorRow(-1)
	case "down":
		m.Grid.MoveCursorRow(1)
	case "left", "shift+tab":
		m.Grid.MoveCursorChannel(-1)
	case "right", "tab":
		m.Grid.MoveCursorChannel(1)
	case "home":
		m.Grid.MoveCursorRow(-m.Grid.Rows())
	case "end":
		m.Grid.MoveCursorRow(m.Grid.Rows())

	case ".":
		m.Grid.ClearCell()
	case "backspace":
		m.Grid.Backspace()
	case "delete":
		_, row := m.Grid.Cursor()
		m.Grid.DeleteAt(row)
	case "insert":
		_, row := m.Grid.Cursor()
		m.Grid.InsertAt(row)

	case "pgup":
		m.changeProgram(1)
	case "pgdown":
		m.changeProgram(-1)

	case "ctrl+s":
		cmd = m.export()
	case "ctrl+p":
		if !m.playing {
			m.playing = true
			m.setStatus("playing, ctrl+c to stop")
			cmd = Play(m.Driver, m.Grid.Snapshot())
		}

	case "?":
		m.showHelp = !m.showHelp

	default:
		if msg.Type == tea.KeySpace {
			m.Grid.SetCell(pitch.Rest)
			break
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			sym := pitch.Symbol(msg.Runes[0])
			if !m.Grid.SetCell(sym) {
				ch, _ := m.Grid.Cursor()
				m.setStatus(fmt.Sprintf("%q is not a %s key", msg.Runes[0], m.Grid.Kind(ch)))
			}
		}
	}

	m.top = m.Grid.Window(m.top, m.height)
	return m, cmd
}

func (m *Model) changeProgram(delta int) {
	ch, _ := m.Grid.Cursor()
	m.Config.SetProgram(ch, int(m.Config.Program(ch))+delta)
	m.Driver.Programs = m.Config.ProgramList()
	m.setStatus(fmt.Sprintf("channel %d program %d", ch+1, m.Config.Program(ch)))
}

func (m *Model) export() tea.Cmd {
	path := m.Config.Output
	if path == "" {
		m.setError(errors.New("no output file, start with -o to save"))
		return nil
	}
	// The command runs on its own goroutine; it gets a copy of everything it
	// reads.
	driver, snap := m.Driver.Detach(), m.Grid.Snapshot()
	return func() tea.Msg {
		return ExportedMsg{Path: path, Err: driver.Export(snap, path)}
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.failed = true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	if m.failed {
		statusStyle = lipgloss.NewStyle().Foreground(m.Theme.Warning())
	}

	ch, row := m.Grid.Cursor()
	kind := m.Grid.Kind(ch)

	header := headerStyle.Render(fmt.Sprintf("termseq  ch %d/%d %-10s  row %d/%d  prog %3d",
		ch+1, m.Grid.Channels(), kind, row+1, m.Grid.Rows(), m.Config.Program(ch)))

	view := widgets.GridView{
		Snapshot:    m.Grid.Snapshot(),
		Channel:     ch,
		Row:         row,
		Top:         m.top,
		Height:      m.height,
		RowsPerBeat: m.Driver.Timing.RowsPerBeat,
		Headers:     m.headers(),
		Styles:      m.gridStyles(),
		Symbols: widgets.GridSymbols{
			Cursor:   m.Theme.Symbols.Cursor,
			Beat:     m.Theme.Symbols.Beat,
			Offbeat:  m.Theme.Symbols.Offbeat,
			Overflow: m.Theme.Symbols.Overflow,
		},
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(view.Render())
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render("keys: " + pitch.Keys(kind) + "  space:rest"))
	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(KeyHelp()))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keyLine)))
	}
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(statusStyle.Render(m.status))
	}
	return out.String()
}

func (m Model) headers() []string {
	headers := make([]string, m.Grid.Channels())
	if ch := m.Grid.Percussion(); ch != grid.NoPercussion {
		headers[ch] = fmt.Sprintf("ch%d dr", ch+1)
	}
	return headers
}

func (m Model) gridStyles() widgets.GridStyles {
	return widgets.GridStyles{
		Header:    lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true),
		Gutter:    lipgloss.NewStyle().Foreground(m.Theme.Muted()),
		Note:      lipgloss.NewStyle().Foreground(m.Theme.FG()),
		Rest:      lipgloss.NewStyle().Foreground(m.Theme.Muted()),
		Cursor:    lipgloss.NewStyle().Foreground(m.Theme.BG()).Background(m.Theme.Cursor()),
		CursorRow: lipgloss.NewStyle().Foreground(m.Theme.Active()).Background(m.Theme.Surface()),
	}
}

var keyLine = []widgets.KeyBinding{
	{Key: "arrows", Desc: "move"},
	{Key: "bksp", Desc: "delete row"},
	{Key: "ctrl+p", Desc: "play"},
	{Key: "ctrl+s", Desc: "save"},
	{Key: "ctrl+q", Desc: "quit"},
	{Key: "?", Desc: "help"},
}

// KeyHelp returns the full key reference shown by "?".
func KeyHelp() string {
	return widgets.RenderKeyHelp(keySections())
}

func keySections() []widgets.KeySection {
	return []widgets.KeySection{
		{
			Title: "Move",
			Keys: []widgets.KeyBinding{
				{Key: "up/down", Desc: "previous/next row"},
				{Key: "left/right", Desc: "previous/next channel (also shift+tab/tab)"},
				{Key: "home/end", Desc: "first/last row"},
			},
		},
		{
			Title: "Edit",
			Keys: []widgets.KeyBinding{
				{Key: "note key", Desc: "write note and advance"},
				{Key: "space", Desc: "write rest and advance"},
				{Key: ".", Desc: "clear cell in place"},
				{Key: "backspace", Desc: "delete second to last row"},
				{Key: "delete", Desc: "delete cursor row"},
				{Key: "insert", Desc: "insert rest row at cursor"},
				{Key: "pgup/pgdown", Desc: "change channel program"},
			},
		},
		{
			Title: "File",
			Keys: []widgets.KeyBinding{
				{Key: "ctrl+p", Desc: "play through synthesizer"},
				{Key: "ctrl+s", Desc: "export to output file"},
				{Key: "ctrl+c/ctrl+q", Desc: "quit"},
			},
		},
	}
}
