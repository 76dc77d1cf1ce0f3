package playback

import "sync"

const eventBufferSize = 16

// Subscription is a channel based Sink. Sends never block: events are dropped
// when a channel buffer is full.
type Subscription struct {
	PositionChanged <-chan PositionEvent
	TrackChanged    <-chan TrackEvent
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	// Internal write channels
	positionCh chan PositionEvent
	trackCh    chan TrackEvent
	errorCh    chan ErrorEvent
	doneCh     chan struct{}

	closeOnce sync.Once
}

var _ Sink = (*Subscription)(nil)

// NewSubscription creates a subscription with buffered channels.
func NewSubscription() *Subscription {
	s := &Subscription{
		positionCh: make(chan PositionEvent, eventBufferSize),
		trackCh:    make(chan TrackEvent, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.PositionChanged = s.positionCh
	s.TrackChanged = s.trackCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// Close signals subscribers to stop by closing Done. Safe to call twice.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.doneCh) })
}

// Emit routes e to its channel (non-blocking).
func (s *Subscription) Emit(e Event) {
	switch e := e.(type) {
	case PositionEvent:
		select {
		case s.positionCh <- e:
		default:
			// Drop if buffer full
		}
	case TrackEvent:
		select {
		case s.trackCh <- e:
		default:
		}
	case ErrorEvent:
		select {
		case s.errorCh <- e:
		default:
		}
	}
}
