package output

import "errors"

// ErrNoDevice is returned when no playback device can be opened.
var ErrNoDevice = errors.New("no audio output device")

// StreamConfig describes the stream a track needs.
type StreamConfig struct {
	SampleRate uint32
	Channels   int
	// Format is FormatAuto to use the device's native format.
	Format SampleFormat
	// PeriodMs is the callback period; 0 lets the backend decide.
	PeriodMs uint32
}

// Host abstracts the audio hardware.
type Host interface {
	// Open creates a stopped stream calling render for every period.
	Open(cfg StreamConfig, render RenderFunc) (Stream, error)
	Close() error
}

// Stream is an output stream on the default device.
type Stream interface {
	Start() error
	// Close stops the callback and releases the device. Safe to call twice.
	Close() error
	// Format is the negotiated sample format.
	Format() SampleFormat
}
