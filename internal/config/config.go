package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults applied by the Get* accessors.
const (
	DefaultVolume           = 0.5
	DefaultPositionInterval = 40 * time.Millisecond
	DefaultIdleInterval     = 200 * time.Millisecond
	DefaultBackoff          = 5 * time.Millisecond
	DefaultPauseBackoff     = 10 * time.Millisecond
	DefaultLogLevel         = "info"
	DefaultOutputFormat     = "auto"
)

type Config struct {
	Playback PlaybackConfig `koanf:"playback"`
	Output   OutputConfig   `koanf:"output"`
	Log      LogConfig      `koanf:"log"`
	State    StateConfig    `koanf:"state"`
}

// PlaybackConfig tunes the playback engine.
type PlaybackConfig struct {
	Volume           *float64      `koanf:"volume"`            // initial volume 0.0-1.0 (default: 0.5)
	PositionInterval time.Duration `koanf:"position_interval"` // position event cadence while playing (default: 40ms)
	IdleInterval     time.Duration `koanf:"idle_interval"`     // reporter cadence while stopped (default: 200ms)
	Backoff          time.Duration `koanf:"backoff"`           // decoder retry when the buffer is full (default: 5ms)
	PauseBackoff     time.Duration `koanf:"pause_backoff"`     // decoder retry while paused (default: 10ms)
}

// OutputConfig selects the device stream parameters.
type OutputConfig struct {
	Format   string `koanf:"format"`    // "auto", "f32", "s16" or "u16" (default: "auto")
	PeriodMs int    `koanf:"period_ms"` // callback period, 0 lets the backend decide
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `koanf:"level"` // logrus level name (default: "info")
	File  string `koanf:"file"`  // log file path, empty for the state directory
	JSON  bool   `koanf:"json"`
}

// StateConfig controls session persistence.
type StateConfig struct {
	Disabled bool `koanf:"disabled"`
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom loads the given files in order, later files overriding earlier
// ones. Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/undertow/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "undertow", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasVolume returns true if an initial volume is configured.
func (c *Config) HasVolume() bool {
	return c.Playback.Volume != nil
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	volume := DefaultVolume
	if cfg.Volume != nil {
		volume = min(max(*cfg.Volume, 0), 1)
	}
	cfg.Volume = &volume

	if cfg.PositionInterval <= 0 {
		cfg.PositionInterval = DefaultPositionInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}
	if cfg.IdleInterval < cfg.PositionInterval {
		cfg.IdleInterval = cfg.PositionInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.PauseBackoff <= 0 {
		cfg.PauseBackoff = DefaultPauseBackoff
	}

	return cfg
}

// GetOutputConfig returns the output configuration with defaults applied.
func (c *Config) GetOutputConfig() OutputConfig {
	cfg := c.Output
	if cfg.Format == "" {
		cfg.Format = DefaultOutputFormat
	}
	if cfg.PeriodMs < 0 {
		cfg.PeriodMs = 0
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	return cfg
}
