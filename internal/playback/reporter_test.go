package playback

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []PositionEvent
}

func (r *recordingSink) Emit(e Event) {
	if p, ok := e.(PositionEvent); ok {
		r.mu.Lock()
		r.events = append(r.events, p)
		r.mu.Unlock()
	}
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingSink) last() PositionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func TestReporter_TickWhilePlaying(t *testing.T) {
	sh := NewShared(1)
	sh.BeginTrack(1, 48000, 480000, true)
	sh.Advance(48000, 0)

	sink := &recordingSink{}
	r := NewReporter(sh, sink, 0, 0)

	require.True(t, r.Tick())
	e := sink.last()
	assert.InDelta(t, 1.0, e.PositionSeconds, 1e-9)
	require.NotNil(t, e.DurationSeconds)
	assert.InDelta(t, 10.0, *e.DurationSeconds, 1e-9)
}

func TestReporter_SkipsWhenNotPlaying(t *testing.T) {
	sh := NewShared(1)
	sink := &recordingSink{}
	r := NewReporter(sh, sink, 0, 0)

	assert.False(t, r.Tick())
	assert.Zero(t, sink.count())
}

func TestReporter_DoesNotMutateState(t *testing.T) {
	sh := NewShared(0.7)
	sh.BeginTrack(1, 44100, 0, false)
	before := sh.Snapshot()

	r := NewReporter(sh, &recordingSink{}, 0, 0)
	r.Tick()

	assert.Equal(t, before, sh.Snapshot())
}

func TestReporter_Cadence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sh := NewShared(1)
		sh.BeginTrack(1, 48000, 0, false)
		sink := &recordingSink{}
		r := NewReporter(sh, sink, 40*time.Millisecond, 200*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			r.Run(ctx)
		}()

		time.Sleep(410 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 10, sink.count(), "one event every 40ms while playing")

		// Idle: the reporter backs off to the idle interval and emits nothing.
		sh.Finish(1)
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, 10, sink.count())

		cancel()
		<-done
	})
}

func TestNewReporter_Defaults(t *testing.T) {
	r := NewReporter(NewShared(1), nil, 0, 0)
	assert.Equal(t, DefaultReportInterval, r.interval)
	assert.Equal(t, DefaultIdleInterval, r.idleInterval)

	r = NewReporter(NewShared(1), nil, time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Second, r.idleInterval, "idle interval never shorter than interval")
}
