package playerbar

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/trackinfo"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{83 * time.Second, "1:23"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.d))
		})
	}
}

func TestRenderProgressBar(t *testing.T) {
	t.Run("half filled", func(t *testing.T) {
		out := RenderProgressBar(30*time.Second, time.Minute, 40, true)
		assert.True(t, strings.HasPrefix(out, playSymbol))
		assert.Contains(t, out, "0:30")
		assert.Contains(t, out, "1:00")
		assert.Equal(t, 40, lipgloss.Width(out))

		filled := strings.Count(out, filledBlock)
		empty := strings.Count(out, emptyBlock)
		assert.InDelta(t, filled, empty, 1)
	})

	t.Run("paused symbol", func(t *testing.T) {
		out := RenderProgressBar(0, time.Minute, 40, false)
		assert.True(t, strings.HasPrefix(out, pauseSymbol))
	})

	t.Run("unknown duration", func(t *testing.T) {
		out := RenderProgressBar(10*time.Second, 0, 40, true)
		assert.Contains(t, out, "--:--")
		assert.Zero(t, strings.Count(out, filledBlock))
	})

	t.Run("position past duration", func(t *testing.T) {
		out := RenderProgressBar(2*time.Minute, time.Minute, 40, true)
		assert.Zero(t, strings.Count(out, emptyBlock))
	})

	t.Run("too narrow", func(t *testing.T) {
		out := RenderProgressBar(0, time.Minute, 10, true)
		assert.Contains(t, out, " / ")
		assert.NotContains(t, out, emptyBlock)
	})
}

func TestRenderVolume(t *testing.T) {
	assert.Contains(t, RenderVolume(0.5), "50%")
	assert.Contains(t, RenderVolume(1), "100%")
	assert.Contains(t, RenderVolume(0), "mute")
}

func TestNewState(t *testing.T) {
	st := playback.State{
		Playing:         true,
		Volume:          0.7,
		PositionSamples: 96000,
		SampleRate:      48000,
		DurationSamples: 480000,
		DurationKnown:   true,
	}
	info := &trackinfo.Info{Title: "Song", Artist: "Band", Album: "Record", Year: 2001}

	s := NewState(st, info, "FLAC")
	assert.Equal(t, playback.StatusPlaying, s.Status)
	assert.Equal(t, 2*time.Second, s.Position)
	assert.Equal(t, 10*time.Second, s.Duration)
	assert.Equal(t, "Song", s.Title)
	assert.Equal(t, "Band", s.Artist)
	assert.InDelta(t, 0.7, s.Volume, 1e-6)

	st.DurationKnown = false
	s = NewState(st, nil, "")
	assert.Zero(t, s.Duration)
	assert.Empty(t, s.Title)
}

func TestRender(t *testing.T) {
	base := State{
		Title:    "Song",
		Artist:   "Band",
		Album:    "Record",
		Year:     2001,
		Codec:    "FLAC",
		Position: 30 * time.Second,
		Duration: time.Minute,
		Volume:   0.5,
	}

	t.Run("playing shows progress", func(t *testing.T) {
		s := base
		s.Status = playback.StatusPlaying
		out := Render(s, 80)
		assert.Contains(t, out, "Song · Band")
		assert.Contains(t, out, "0:30")
		assert.Contains(t, out, "50%")
		assert.Equal(t, Height, lipgloss.Height(out))
	})

	t.Run("stopped shows info", func(t *testing.T) {
		s := base
		s.Status = playback.StatusStopped
		out := Render(s, 80)
		assert.Contains(t, out, stopSymbol)
		assert.Contains(t, out, "Record · 2001 · FLAC")
		assert.NotContains(t, out, filledBlock)
	})

	t.Run("error replaces second line", func(t *testing.T) {
		s := base
		s.Status = playback.StatusPlaying
		s.Err = "Failed to load track 'x': boom"
		out := Render(s, 80)
		assert.Contains(t, out, "boom")
		assert.NotContains(t, out, "0:30")
	})

	t.Run("no track", func(t *testing.T) {
		out := Render(State{}, 60)
		assert.Contains(t, out, "No track")
	})

	t.Run("long title is truncated", func(t *testing.T) {
		s := base
		s.Status = playback.StatusPlaying
		s.Title = strings.Repeat("x", 200)
		out := Render(s, 60)
		for _, line := range strings.Split(out, "\n") {
			assert.LessOrEqual(t, lipgloss.Width(line), 60)
		}
		assert.Contains(t, out, "…")
	})
}
