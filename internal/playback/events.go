package playback

import (
	"github.com/llehouerou/undertow/internal/errmsg"
)

// Event names as seen by the UI layer.
const (
	EventPosition = "playback:position"
	EventTrack    = "playback:track"
	EventError    = "playback:error"
)

// Event is emitted by the engine to a Sink.
type Event interface {
	Name() string
}

// PositionEvent is emitted by the position reporter while playing.
type PositionEvent struct {
	PositionSeconds float64  `json:"position_seconds"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

func (PositionEvent) Name() string { return EventPosition }

// TrackEvent is emitted after a track has been probed and its output stream
// started.
type TrackEvent struct {
	Path       string
	SampleRate uint32
	Channels   int
	Codec      string
	// DurationSeconds is zero when the container does not declare a length.
	DurationSeconds float64
}

func (TrackEvent) Name() string { return EventTrack }

// ErrorEvent is emitted when a load or device operation fails.
type ErrorEvent struct {
	Op   errmsg.Op
	Path string // track path if applicable
	Err  error
}

func (ErrorEvent) Name() string { return EventError }

// Message formats the error for display.
func (e ErrorEvent) Message() string {
	return errmsg.FormatWith(e.Op, e.Path, e.Err)
}

// Sink receives engine events. Emit must not block for long: it is called
// from the command loop and the reporter.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})
