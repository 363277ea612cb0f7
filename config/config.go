package config

import (
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// maxRecent bounds the recent files list
const maxRecent = 10

// Tempo scale bounds in percent, the same range the player accepts
const (
	minTempoScale = 10
	maxTempoScale = 400
)

// OutputConfig selects the MIDI output port
type OutputConfig struct {
	// Port is matched as a substring of the port name. Empty picks the
	// first port, "none" plays without MIDI output.
	Port string `yaml:"port,omitempty"`
}

// PlayerConfig stores playback and UI preferences
type PlayerConfig struct {
	TempoScale float64 `yaml:"tempo_scale"`
	SeekStep   float64 `yaml:"seek_step"`
	// Palette is a GIMP .gpl file; empty uses the built-in palette
	Palette string `yaml:"palette,omitempty"`
}

// ServerConfig configures the conversion service
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	MaxUpload int64  `yaml:"max_upload"`
}

// Config is the main configuration structure
type Config struct {
	Output OutputConfig `yaml:"output"`
	Player PlayerConfig `yaml:"player"`
	Server ServerConfig `yaml:"server"`
	Debug  bool         `yaml:"debug,omitempty"`
	Recent []string     `yaml:"recent,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			TempoScale: 100,
			SeekStep:   5,
		},
		Server: ServerConfig{
			Addr:      ":8888",
			MaxUpload: 16 << 20,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midi-player"), nil
}

// ConfigPath returns the full path to config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Keys missing from the file keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.fix()
	return cfg, nil
}

// fix replaces unusable values with defaults and clamps the tempo scale
func (c *Config) fix() {
	def := DefaultConfig()
	switch ts := c.Player.TempoScale; {
	case !(ts > 0) || math.IsInf(ts, 0):
		c.Player.TempoScale = def.Player.TempoScale
	case ts < minTempoScale:
		c.Player.TempoScale = minTempoScale
	case ts > maxTempoScale:
		c.Player.TempoScale = maxTempoScale
	}
	if c.Player.SeekStep <= 0 {
		c.Player.SeekStep = def.Player.SeekStep
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.MaxUpload <= 0 {
		c.Server.MaxUpload = def.Server.MaxUpload
	}
	if len(c.Recent) > maxRecent {
		c.Recent = c.Recent[:maxRecent]
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// AddRecent moves path to the front of the recent files list
func (c *Config) AddRecent(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	recent := []string{path}
	for _, p := range c.Recent {
		if p != path && len(recent) < maxRecent {
			recent = append(recent, p)
		}
	}
	c.Recent = recent
}

// OutputDisabled reports whether playback should skip MIDI output
func (c *Config) OutputDisabled() bool {
	return c.Output.Port == "none"
}
