package player

// Command is a request processed by the player's command loop.
type Command interface {
	command()
}

// LoadAndPlay replaces the current track with Path and plays it from the
// start.
type LoadAndPlay struct {
	Path string
}

// TogglePlayback pauses if playing and resumes if paused.
type TogglePlayback struct{}

// VolumeChange sets the output gain. Level is stored as given; callers keep it
// within [0, 1].
type VolumeChange struct {
	Level float32
}

// Seek jumps to PositionSeconds in the current track.
type Seek struct {
	PositionSeconds float64
}

func (LoadAndPlay) command()    {}
func (TogglePlayback) command() {}
func (VolumeChange) command()   {}
func (Seek) command()           {}

type decoderOp int

const (
	decoderSeek decoderOp = iota
	decoderStop
)

// decoderCommand is sent from the command loop to a decoder worker.
type decoderCommand struct {
	op     decoderOp
	target uint64 // frames, for decoderSeek
}

func (op decoderOp) String() string {
	switch op {
	case decoderSeek:
		return "seek"
	case decoderStop:
		return "stop"
	default:
		return "unknown"
	}
}
