package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	filledBlock = "▓"
	emptyBlock  = "░"
)

// RenderProgressBar renders a block-style progress bar.
// Format: ▶  1:23  ▓▓▓▓▓░░░░░  4:56
// A zero duration means the length is unknown and shows as --:--.
func RenderProgressBar(position, duration time.Duration, width int, playing bool) string {
	status := playSymbol
	if !playing {
		status = pauseSymbol
	}

	posStr := formatDuration(position)
	durStr := "--:--"
	if duration > 0 {
		durStr = formatDuration(duration)
	}

	fixedWidth := lipgloss.Width(status) + 2 + lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for bar, just show times
		return status + "  " + posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	filled := max(min(int(float64(barWidth)*ratio), barWidth), 0)

	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)

	return status + "  " + posStr + "  " + bar + "  " + durStr
}

// formatDuration renders d as m:ss, or h:mm:ss past an hour.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
