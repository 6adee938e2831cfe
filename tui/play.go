package tui

import (
	"context"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"termseq/export"
	"termseq/grid"
	"termseq/playback"
)

// playCommand runs a blocking playback while bubbletea has released the
// terminal. An interrupt cancels the playback, not the program.
type playCommand struct {
	driver *export.Driver
	snap   grid.Snapshot

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *playCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *playCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *playCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *playCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx)
}

func (c *playCommand) run(ctx context.Context) error {
	if ps, ok := c.driver.Synth.(*playback.ProcessSynth); ok {
		ps.Stdin, ps.Stdout, ps.Stderr = c.stdin, c.stdout, c.stderr
	}
	return c.driver.Play(ctx, c.snap)
}

// Play hands the terminal to the synthesizer until snap has been played.
func Play(driver *export.Driver, snap grid.Snapshot) tea.Cmd {
	return tea.Exec(&playCommand{driver: driver, snap: snap}, func(err error) tea.Msg {
		return PlayDoneMsg{Err: err}
	})
}
