package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/term"

	"termseq/config"
	"termseq/debug"
	"termseq/export"
	"termseq/grid"
	"termseq/midi"
	"termseq/pitch"
	"termseq/playback"
	"termseq/sequencer"
	"termseq/theme"
	"termseq/tui"
)

type options struct {
	configPath  string
	channels    int
	percussion  int
	rowsPerBeat int
	instruments []int
	ticks       uint16
	velocity    uint8
	output      string
	importPath  string
	soundfont   string
	synth       string
	port        string
	palette     string
	hex         bool
	debug       bool
	keymap      bool
	saveConfig  bool
}

var opts options

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "termseq [file]",
		Short: "A terminal multi-channel note sequencer",
		Long: `termseq edits a grid of notes, one column per MIDI channel, and writes it
out as a Standard MIDI File.

When file is given it is loaded if it exists and written back on save and on
exit. Without any output file the MIDI bytes are written to stdout on exit.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/termseq/config.yml)")
	flags.IntVarP(&opts.channels, "channels", "n", 0, "number of channels")
	flags.IntVar(&opts.percussion, "percussion", 0, "percussion channel index, -1 for none")
	flags.IntVar(&opts.rowsPerBeat, "rows-per-beat", 0, "rows per quarter note")
	flags.IntSliceVarP(&opts.instruments, "instrument", "i", nil, "General MIDI program per channel (repeatable)")
	flags.Uint16Var(&opts.ticks, "ticks-per-beat", 0, "MIDI ticks per quarter note")
	flags.Uint8Var(&opts.velocity, "velocity", 0, "note-on velocity (1-127)")
	flags.StringVarP(&opts.output, "output", "o", "", "MIDI file written on save and on exit")
	flags.StringVar(&opts.importPath, "import", "", "start from the notes of this MIDI file")
	flags.StringVar(&opts.soundfont, "soundfont", "", "soundfont passed to the synthesizer")
	flags.StringVar(&opts.synth, "synth", "", "synthesizer command (default fluidsynth)")
	flags.StringVar(&opts.port, "port", "", "play through the MIDI output port matching this pattern")
	flags.StringVar(&opts.palette, "palette", "", "GIMP palette file for the UI")
	flags.BoolVarP(&opts.hex, "hex", "x", false, "hex dump to stdout on exit instead of raw bytes")
	flags.BoolVar(&opts.debug, "debug", false, "write a debug log to ~/.config/termseq/debug.log")
	flags.BoolVarP(&opts.keymap, "keymap", "H", false, "print the key bindings and exit")
	flags.BoolVar(&opts.saveConfig, "save-config", false, "write the effective settings to the config file")
	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "termseq: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if opts.keymap {
		printKeymap(cmd.OutOrStdout())
		return nil
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if opts.saveConfig {
		if err := saveConfig(cfg); err != nil {
			return err
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal")
	}

	if opts.debug {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}
	debug.Log("main", "config %+v", cfg)

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return fmt.Errorf("load palette: %w", err)
	}

	g, err := newGrid(cfg, args)
	if err != nil {
		return err
	}

	synth, err := newSynth(cfg)
	if err != nil {
		return err
	}
	driver := &export.Driver{
		Timing: sequencer.Timing{
			TicksPerQuarter: cfg.TicksPerQuarter,
			RowsPerBeat:     cfg.RowsPerBeat,
		},
		Velocity: cfg.Velocity,
		Programs: cfg.ProgramList(),
		Synth:    synth,
	}
	defer driver.Cleanup()

	m := tui.NewModel(g, driver, cfg, theme.New(palette))
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(tui.Model); !ok || !fm.Quitting() {
		return nil
	}

	return save(driver, g.Snapshot(), cfg.Output)
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("channels") {
		cfg.Channels = opts.channels
		if !flags.Changed("percussion") && cfg.Percussion >= cfg.Channels {
			cfg.Percussion = cfg.Channels - 1
		}
	}
	if flags.Changed("percussion") {
		cfg.Percussion = opts.percussion
	}
	if flags.Changed("rows-per-beat") {
		cfg.RowsPerBeat = opts.rowsPerBeat
	}
	if flags.Changed("ticks-per-beat") {
		cfg.TicksPerQuarter = opts.ticks
	}
	if flags.Changed("velocity") {
		cfg.Velocity = opts.velocity
	}
	for ch, program := range opts.instruments {
		cfg.SetProgram(ch, program)
	}
	if opts.output != "" {
		cfg.Output = opts.output
	} else if len(args) > 0 {
		cfg.Output = args[0]
	}
	if opts.soundfont != "" {
		cfg.Soundfont = opts.soundfont
	}
	if opts.synth != "" {
		cfg.Synth.Command = opts.synth
	}
	if opts.port != "" {
		cfg.Synth.Port = opts.port
	}
	if opts.palette != "" {
		cfg.UI.Palette = opts.palette
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSynth picks a MIDI output port when one is configured, the external
// synthesizer otherwise.
func newSynth(cfg *config.Config) (playback.Synth, error) {
	if cfg.Synth.Port != "" {
		port, err := midi.FindOutPort(cfg.Synth.Port, midi.ScanTimeout)
		if err != nil {
			return nil, err
		}
		debug.Log("main", "playing through port %s", port.String())
		return &playback.PortSynth{Port: port}, nil
	}
	return playback.NewProcessSynth(cfg.Synth.Command, cfg.Synth.Args, cfg.Soundfont), nil
}

func saveConfig(cfg *config.Config) error {
	var err error
	if opts.configPath != "" {
		err = cfg.SaveFile(opts.configPath)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// newGrid starts from the --import file, else from the positional file when
// it exists, else from an empty grid. Programs found in the file apply to
// channels not set with -i.
func newGrid(cfg *config.Config, args []string) (*grid.Grid, error) {
	path := opts.importPath
	if path == "" && len(args) > 0 {
		if _, err := os.Stat(args[0]); err == nil {
			path = args[0]
		}
	}
	if path == "" {
		return grid.New(cfg.Channels, cfg.Percussion)
	}

	imp, err := export.Import(path, cfg.Channels, cfg.Percussion, cfg.RowsPerBeat)
	if err != nil {
		return nil, err
	}
	for ch, program := range imp.Programs {
		if ch >= len(opts.instruments) {
			cfg.SetProgram(ch, int(program))
		}
	}
	if imp.Dropped > 0 {
		debug.Log("main", "%s: %d notes did not fit the grid", path, imp.Dropped)
	}
	return grid.FromSnapshot(imp.Snapshot)
}

// save writes the grid to path, or to stdout when path is empty.
func save(driver *export.Driver, snap grid.Snapshot, path string) error {
	if path != "" {
		return driver.Export(snap, path)
	}
	if opts.hex || term.IsTerminal(int(os.Stdout.Fd())) {
		return driver.WriteHex(snap, os.Stdout)
	}
	return driver.WriteTo(snap, os.Stdout)
}

func printKeymap(w io.Writer) {
	fmt.Fprintln(w, tui.KeyHelp())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Melodic keys")
	fmt.Fprintln(w, "  "+pitch.Keys(pitch.Melodic))
	fmt.Fprintln(w, "Drum keys")
	fmt.Fprintln(w, "  "+pitch.Keys(pitch.Percussion))
}
