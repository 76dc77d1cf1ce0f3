package playback

import (
	"context"
	"time"
)

// Default reporter cadence.
const (
	DefaultReportInterval = 40 * time.Millisecond
	DefaultIdleInterval   = 200 * time.Millisecond
)

// Reporter periodically samples the shared state and emits PositionEvent
// while a track is playing. It never mutates the state.
type Reporter struct {
	shared       *Shared
	sink         Sink
	interval     time.Duration
	idleInterval time.Duration
}

// NewReporter creates a reporter. Non-positive intervals select the defaults;
// an idle interval shorter than interval is raised to interval.
func NewReporter(shared *Shared, sink Sink, interval, idleInterval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	if idleInterval <= 0 {
		idleInterval = DefaultIdleInterval
	}
	idleInterval = max(idleInterval, interval)
	if sink == nil {
		sink = Discard
	}
	return &Reporter{
		shared:       shared,
		sink:         sink,
		interval:     interval,
		idleInterval: idleInterval,
	}
}

// Run ticks until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := r.interval
		if !r.Tick() {
			next = r.idleInterval
		}
		timer.Reset(next)
	}
}

// Tick performs one sampling step and reports whether an event was emitted.
func (r *Reporter) Tick() bool {
	e, ok := positionEvent(r.shared.Position())
	if !ok {
		return false
	}
	r.sink.Emit(e)
	return true
}

func positionEvent(s State) (PositionEvent, bool) {
	if !s.Playing {
		return PositionEvent{}, false
	}
	e := PositionEvent{PositionSeconds: s.PositionSeconds()}
	if d, ok := s.DurationSeconds(); ok {
		e.DurationSeconds = &d
	}
	return e, true
}
