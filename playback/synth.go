package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"termseq/debug"
)

// Synth renders a MIDI file to sound. Play blocks until the file has finished
// playing or ctx is cancelled.
type Synth interface {
	Play(ctx context.Context, path string) error
}

// Defaults for ProcessSynth.
const (
	DefaultCommand   = "fluidsynth"
	DefaultSoundfont = "/usr/share/soundfonts/default.sf2"
)

// DefaultArgs run fluidsynth without a shell and without MIDI input, so it
// exits once the file is done.
var DefaultArgs = []string{"-n", "-i"}

// ProcessSynth runs an external synthesizer as
//
//	Command Args... Soundfont file
type ProcessSynth struct {
	Command   string
	Args      []string
	Soundfont string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcessSynth returns a ProcessSynth with default command and arguments
// filled in where the given ones are empty.
func NewProcessSynth(command string, args []string, soundfont string) *ProcessSynth {
	if command == "" {
		command = DefaultCommand
		if args == nil {
			args = DefaultArgs
		}
	}
	if soundfont == "" {
		soundfont = DefaultSoundfont
	}
	return &ProcessSynth{
		Command:   command,
		Args:      args,
		Soundfont: soundfont,
	}
}

// Play starts the synthesizer and waits for it to exit.
func (p *ProcessSynth) Play(ctx context.Context, path string) error {
	bin, err := exec.LookPath(p.Command)
	if err != nil {
		return fmt.Errorf("synthesizer %q not found: %w", p.Command, err)
	}

	args := append(append([]string(nil), p.Args...), p.Soundfont, path)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	debug.Log("synth", "exec %s %v", bin, args)
	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s exited with status %d", p.Command, exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", p.Command, err)
	}
	return nil
}
