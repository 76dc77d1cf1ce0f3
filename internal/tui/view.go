package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/undertow/internal/trackinfo"
	"github.com/llehouerou/undertow/internal/ui/playerbar"
)

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

// View renders the player bar, the file position and key help.
func (m Model) View() string {
	st := m.engine.Status()
	// The engine stores volume verbatim; show what the UI asked for.
	st.Volume = m.volume

	info := m.info
	if info == nil && len(m.files) > 0 {
		info = trackinfo.Untagged(m.current())
	}

	bar := playerbar.NewState(st, info, m.codec)
	bar.Err = m.errMsg

	var b strings.Builder
	b.WriteString(playerbar.Render(bar, m.width))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(trackinfo.Truncate(m.position(), m.width)))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// position is "[2/5] dir/file.flac", or a usage hint without files.
func (m Model) position() string {
	if len(m.files) == 0 {
		return "no files given"
	}
	cur := m.current()
	return fmt.Sprintf("[%d/%d] %s", m.index+1, len(m.files),
		filepath.Join(filepath.Base(filepath.Dir(cur)), filepath.Base(cur)))
}
