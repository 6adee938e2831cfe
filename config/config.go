package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"termseq/grid"
	"termseq/midi"
	"termseq/sequencer"
)

// SynthConfig selects how playback is rendered
type SynthConfig struct {
	Command string   `yaml:"command,omitempty"` // external synth executable
	Args    []string `yaml:"args,omitempty"`    // flags before soundfont and file
	Port    string   `yaml:"port,omitempty"`    // MIDI out port pattern; overrides Command
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette     string `yaml:"palette,omitempty"` // GIMP .gpl palette file
	VisibleRows int    `yaml:"visibleRows,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Channels        int         `yaml:"channels"`
	Percussion      int         `yaml:"percussion"` // -1 for none
	RowsPerBeat     int         `yaml:"rowsPerBeat"`
	TicksPerQuarter uint16      `yaml:"ticksPerQuarter"`
	Velocity        uint8       `yaml:"velocity"`
	Programs        []int       `yaml:"programs,omitempty"`
	Output          string      `yaml:"output,omitempty"`
	Soundfont       string      `yaml:"soundfont,omitempty"`
	Synth           SynthConfig `yaml:"synth,omitempty"`
	UI              UIConfig    `yaml:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Channels:        4,
		Percussion:      3,
		RowsPerBeat:     sequencer.DefaultRowsPerBeat,
		TicksPerQuarter: sequencer.DefaultTicksPerQuarter,
		Velocity:        sequencer.DefaultVelocity,
		Programs:        []int{0, 32, 24, 0},
		UI: UIConfig{
			VisibleRows: 16,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "termseq"), nil
}

// ConfigPath returns the full path to config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Load reads the config from the default location, or returns defaults if
// not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path on top of the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("could not open %v: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("could not decode %v: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks ranges that the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Percussion < grid.NoPercussion || c.Percussion >= c.Channels {
		return fmt.Errorf("percussion channel %d out of range for %d channels", c.Percussion, c.Channels)
	}
	if _, err := midi.ChannelMap(c.Channels, c.Percussion); err != nil {
		return err
	}
	if c.RowsPerBeat < 1 {
		return fmt.Errorf("rows per beat must be positive, got %d", c.RowsPerBeat)
	}
	if c.TicksPerQuarter == 0 || c.TicksPerQuarter > 0x7fff {
		return fmt.Errorf("ticks per quarter must be between 1 and 32767, got %d", c.TicksPerQuarter)
	}
	if c.Velocity == 0 || c.Velocity > 127 {
		return fmt.Errorf("velocity must be between 1 and 127, got %d", c.Velocity)
	}
	for i, p := range c.Programs {
		if p < 0 || p > 127 {
			return fmt.Errorf("program %d for channel %d out of range", p, i+1)
		}
	}
	return nil
}

// Program returns the program for channel ch, 0 if none is configured.
func (c *Config) Program(ch int) uint8 {
	if ch >= 0 && ch < len(c.Programs) {
		return uint8(c.Programs[ch])
	}
	return 0
}

// SetProgram sets the program for channel ch, growing the list if needed.
func (c *Config) SetProgram(ch, program int) {
	for len(c.Programs) <= ch {
		c.Programs = append(c.Programs, 0)
	}
	c.Programs[ch] = (program%128 + 128) % 128
}

// ProgramList returns one program per channel.
func (c *Config) ProgramList() []uint8 {
	out := make([]uint8, c.Channels)
	for i := range out {
		out[i] = c.Program(i)
	}
	return out
}
