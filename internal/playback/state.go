package playback

import "sync"

// DefaultSampleRate is reported before any track has been loaded.
const DefaultSampleRate = 48000

// Status is the transport state derived from the shared record for display.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing or paused).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}

// State is the playback record shared by the command loop, the decoder
// worker, the output callback and the position reporter.
type State struct {
	// Playing is true while a track is loaded and progressing.
	Playing bool
	// Paused is independent of Playing.
	Paused bool
	// Volume is the linear gain applied by the output callback.
	Volume float32
	// PositionSamples counts frames consumed since track start or last seek.
	PositionSamples uint64
	SampleRate      uint32
	DurationSamples uint64
	DurationKnown   bool
	// NeedsBufferClear is raised by a seek and acknowledged by the output
	// callback once queued samples are discarded.
	NeedsBufferClear bool

	// Generation identifies the decoder that owns Playing.
	Generation uint64
	// SeekEpoch changes on every applied seek.
	SeekEpoch uint64
}

// Status derives the transport status.
func (s State) Status() Status {
	switch {
	case !s.Playing:
		return StatusStopped
	case s.Paused:
		return StatusPaused
	default:
		return StatusPlaying
	}
}

// PositionSeconds converts PositionSamples using SampleRate.
func (s State) PositionSeconds() float64 {
	return samplesToSeconds(s.PositionSamples, s.SampleRate)
}

// DurationSeconds returns the track duration, if the container declared it.
func (s State) DurationSeconds() (float64, bool) {
	if !s.DurationKnown {
		return 0, false
	}
	return samplesToSeconds(s.DurationSamples, s.SampleRate), true
}

func samplesToSeconds(samples uint64, rate uint32) float64 {
	if rate == 0 {
		return 0
	}
	return float64(samples) / float64(rate)
}

// Shared is the mutex-guarded handle to the single State instance. It is
// passed explicitly to every component; critical sections never perform I/O.
type Shared struct {
	mu sync.Mutex
	s  State
}

// NewShared creates the shared record with the given initial volume.
func NewShared(volume float32) *Shared {
	return &Shared{s: State{
		Volume:     volume,
		SampleRate: DefaultSampleRate,
	}}
}

// Snapshot returns a copy of the current record.
func (sh *Shared) Snapshot() State {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s
}

// SetPlaying sets the Playing flag regardless of generation.
func (sh *Shared) SetPlaying(playing bool) {
	sh.mu.Lock()
	sh.s.Playing = playing
	sh.mu.Unlock()
}

// TogglePaused flips Paused and returns the new value.
func (sh *Shared) TogglePaused() bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.s.Paused = !sh.s.Paused
	return sh.s.Paused
}

// SetVolume stores level verbatim.
func (sh *Shared) SetVolume(level float32) {
	sh.mu.Lock()
	sh.s.Volume = level
	sh.mu.Unlock()
}

// BeginTrack publishes a new track owned by decoder generation gen and marks
// it playing and unpaused from the start. It reports false and changes
// nothing when a newer generation already owns the record.
func (sh *Shared) BeginTrack(gen uint64, sampleRate uint32, durationSamples uint64, durationKnown bool) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if gen < sh.s.Generation {
		return false
	}
	sh.s.Generation = gen
	sh.s.SampleRate = sampleRate
	sh.s.DurationSamples = durationSamples
	sh.s.DurationKnown = durationKnown
	sh.s.PositionSamples = 0
	sh.s.NeedsBufferClear = false
	sh.s.Playing = true
	sh.s.Paused = false
	return true
}

// Finish marks the track stopped if gen still owns the record.
func (sh *Shared) Finish(gen uint64) {
	sh.mu.Lock()
	if sh.s.Generation == gen {
		sh.s.Playing = false
	}
	sh.mu.Unlock()
}

// ActiveFor reports whether gen owns the record and is playing, along with
// the paused flag.
func (sh *Shared) ActiveFor(gen uint64) (active, paused bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.Playing && sh.s.Generation == gen, sh.s.Paused
}

// ApplySeek jumps the position to target and requests a buffer flush.
// It returns false if gen no longer owns the record.
func (sh *Shared) ApplySeek(gen, target uint64) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.s.Generation != gen {
		return false
	}
	sh.s.PositionSamples = target
	sh.s.NeedsBufferClear = true
	sh.s.SeekEpoch++
	return true
}

// ClearPending reports whether a flush requested by gen has not yet been
// performed by the output callback.
func (sh *Shared) ClearPending(gen uint64) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.Generation == gen && sh.s.NeedsBufferClear
}

// Gate is what the output callback needs from the record for one invocation.
type Gate struct {
	// Audible is false when the callback must emit silence only.
	Audible bool
	Volume  float32
	// Clear is true when queued samples predate a seek and must be dropped.
	Clear bool
	Epoch uint64
}

// RenderGate reads the transport flags for one callback invocation.
func (sh *Shared) RenderGate() Gate {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if !sh.s.Playing || sh.s.Paused {
		return Gate{}
	}
	return Gate{
		Audible: true,
		Volume:  sh.s.Volume,
		Clear:   sh.s.NeedsBufferClear,
		Epoch:   sh.s.SeekEpoch,
	}
}

// ClearDone acknowledges the flush requested by the seek of epoch. The
// decoder keeps waiting until then, so samples it pushes after the seek are
// never discarded. A later seek keeps its own request pending.
func (sh *Shared) ClearDone(epoch uint64) {
	sh.mu.Lock()
	if sh.s.SeekEpoch == epoch {
		sh.s.NeedsBufferClear = false
	}
	sh.mu.Unlock()
}

// Advance moves the position forward by frames unless a seek was applied
// after the gate for epoch was taken.
func (sh *Shared) Advance(frames, epoch uint64) {
	sh.mu.Lock()
	if sh.s.SeekEpoch == epoch {
		sh.s.PositionSamples += frames
	}
	sh.mu.Unlock()
}

// Position returns the subset of the record the reporter needs: position,
// optional duration, sample rate and the playing flag.
func (sh *Shared) Position() State {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return State{
		Playing:         sh.s.Playing,
		PositionSamples: sh.s.PositionSamples,
		SampleRate:      sh.s.SampleRate,
		DurationSamples: sh.s.DurationSamples,
		DurationKnown:   sh.s.DurationKnown,
	}
}

// SampleRate returns the sample rate of the current track.
func (sh *Shared) SampleRate() uint32 {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.SampleRate
}
