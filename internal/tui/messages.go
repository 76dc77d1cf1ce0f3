package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/trackinfo"
)

const tickInterval = 250 * time.Millisecond

type (
	positionMsg playback.PositionEvent
	trackMsg    playback.TrackEvent
	errorMsg    playback.ErrorEvent
	closedMsg   struct{}
	tickMsg     time.Time
)

// infoMsg carries tags read for path.
type infoMsg struct {
	path string
	info *trackinfo.Info
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchEvents waits for the next engine event and converts it to a tea.Msg.
func watchEvents(sub *playback.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case e := <-sub.PositionChanged:
			return positionMsg(e)
		case e := <-sub.TrackChanged:
			return trackMsg(e)
		case e := <-sub.Error:
			return errorMsg(e)
		case <-sub.Done:
			return closedMsg{}
		}
	}
}

func readInfo(read func(string) (*trackinfo.Info, error), path string) tea.Cmd {
	return func() tea.Msg {
		info, err := read(path)
		if err != nil {
			info = trackinfo.Untagged(path)
		}
		return infoMsg{path: path, info: info}
	}
}
