//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/library/albums",
			expected: filepath.Join(home, "music", "library", "albums"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
		{
			name:     "tilde with slash",
			input:    "~/",
			expected: filepath.Join(home, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	// Should have at least one path
	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	// If we have home dir, first path should be ~/.config/undertow/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "undertow", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	global := writeConfig(t, dir, "global.toml", `
[playback]
volume = 0.8
position_interval = "25ms"
backoff = "2ms"

[output]
format = "S16"
period_ms = 20

[log]
level = "debug"
file = "~/undertow.log"
`)
	local := writeConfig(t, dir, "local.toml", `
[playback]
volume = 0.3

[state]
disabled = true
`)

	cfg, err := LoadFrom(global, filepath.Join(dir, "missing.toml"), local)
	require.NoError(t, err)

	require.True(t, cfg.HasVolume())
	assert.InDelta(t, 0.3, *cfg.Playback.Volume, 1e-9, "later file wins")
	assert.Equal(t, 25*time.Millisecond, cfg.Playback.PositionInterval)
	assert.Equal(t, 2*time.Millisecond, cfg.Playback.Backoff)
	assert.Equal(t, "s16", cfg.Output.Format)
	assert.Equal(t, 20, cfg.Output.PeriodMs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.State.Disabled)

	if home, err := os.UserHomeDir(); err == nil {
		assert.Equal(t, filepath.Join(home, "undertow.log"), cfg.Log.File)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "bad.toml", "[playback\nvolume = ")
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	cfg := (&Config{}).GetPlaybackConfig()

	require.NotNil(t, cfg.Volume)
	assert.InDelta(t, DefaultVolume, *cfg.Volume, 1e-9)
	assert.Equal(t, DefaultPositionInterval, cfg.PositionInterval)
	assert.Equal(t, DefaultIdleInterval, cfg.IdleInterval)
	assert.Equal(t, DefaultBackoff, cfg.Backoff)
	assert.Equal(t, DefaultPauseBackoff, cfg.PauseBackoff)
}

func TestGetPlaybackConfig_Clamps(t *testing.T) {
	tests := []struct {
		name     string
		volume   float64
		expected float64
	}{
		{"in range", 0.7, 0.7},
		{"mute kept", 0, 0},
		{"above one", 1.5, 1},
		{"negative", -0.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.volume
			cfg := (&Config{Playback: PlaybackConfig{Volume: &v}}).GetPlaybackConfig()
			assert.InDelta(t, tt.expected, *cfg.Volume, 1e-9)
		})
	}

	c := Config{Playback: PlaybackConfig{
		PositionInterval: 100 * time.Millisecond,
		IdleInterval:     50 * time.Millisecond,
	}}
	assert.Equal(t, 100*time.Millisecond, c.GetPlaybackConfig().IdleInterval)
}

func TestGetOutputAndLogConfig_Defaults(t *testing.T) {
	c := Config{Output: OutputConfig{PeriodMs: -5}}
	out := c.GetOutputConfig()
	assert.Equal(t, DefaultOutputFormat, out.Format)
	assert.Zero(t, out.PeriodMs)

	assert.Equal(t, DefaultLogLevel, c.GetLogConfig().Level)
}
