// Package playerbar renders the now-playing bar.
package playerbar

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/trackinfo"
)

// Height is the rendered height: top border, two content rows, bottom border.
const Height = 4

// State holds everything needed to render the player bar.
type State struct {
	Status   playback.Status
	Title    string
	Artist   string
	Album    string
	Year     int
	Codec    string
	Position time.Duration
	// Duration is zero when the track length is unknown.
	Duration time.Duration
	Volume   float32
	// Err is the last playback error message, shown in place of the info line.
	Err string
}

// NewState builds a State from a playback snapshot and the current track's
// tags. info may be nil before any track was loaded.
func NewState(st playback.State, info *trackinfo.Info, codec string) State {
	s := State{
		Status:   st.Status(),
		Volume:   st.Volume,
		Codec:    codec,
		Position: seconds(st.PositionSeconds()),
	}
	if d, ok := st.DurationSeconds(); ok {
		s.Duration = seconds(d)
	}
	if info != nil {
		s.Title = info.Title
		s.Artist = info.Artist
		s.Album = info.Album
		s.Year = info.Year
	}
	return s
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// Render returns the player bar string for the given width.
func Render(s State, width int) string {
	innerWidth := max(width-4, 0) // border and padding

	title := s.Title
	if title == "" {
		title = "No track"
	} else if s.Artist != "" {
		title += " · " + s.Artist
	}

	status := stopSymbol
	switch s.Status {
	case playback.StatusPlaying:
		status = playSymbol
	case playback.StatusPaused:
		status = pauseSymbol
	}

	vol := RenderVolume(s.Volume)
	titleWidth := max(innerWidth-lipgloss.Width(status)-lipgloss.Width(vol)-4, 1)
	top := status + "  " + titleStyle().Render(trackinfo.Truncate(title, titleWidth))
	gap := max(innerWidth-lipgloss.Width(top)-lipgloss.Width(vol), 1)
	top += strings.Repeat(" ", gap) + vol

	var bottom string
	switch {
	case s.Err != "":
		bottom = errorStyle().Render(trackinfo.Truncate(s.Err, innerWidth))
	case s.Status.IsActive():
		bottom = progressTimeStyle().Render(
			RenderProgressBar(s.Position, s.Duration, innerWidth, s.Status == playback.StatusPlaying))
	default:
		bottom = artistStyle().Render(trackinfo.Truncate(infoLine(s), innerWidth))
	}

	return barStyle.Width(max(width-2, 0)).Render(top + "\n" + bottom)
}

// infoLine joins artist, album, year and codec with middle dots.
func infoLine(s State) string {
	var parts []string
	if s.Artist != "" {
		parts = append(parts, s.Artist)
	}
	if s.Album != "" {
		parts = append(parts, s.Album)
	}
	if s.Year > 0 {
		parts = append(parts, strconv.Itoa(s.Year))
	}
	if s.Codec != "" {
		parts = append(parts, s.Codec)
	}
	return strings.Join(parts, " · ")
}
