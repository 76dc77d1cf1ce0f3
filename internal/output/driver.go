package output

import (
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/ringbuf"
)

// scratchSamples bounds the samples popped from the ring per chunk.
const scratchSamples = 4096

// RenderFunc fills out with encoded samples. It runs on the audio thread and
// must not block.
type RenderFunc func(out []byte, format SampleFormat)

// Driver is the consumer side of one track pipeline. Render is called from a
// single audio thread.
type Driver struct {
	shared   *playback.Shared
	ring     *ringbuf.Consumer
	channels int
	scratch  []float32
	// partial carries samples of a frame split across two callbacks.
	partial int
}

// NewDriver creates a driver draining ring for a stream of channels.
func NewDriver(shared *playback.Shared, ring *ringbuf.Consumer, channels int) *Driver {
	if channels <= 0 {
		channels = 1
	}
	return &Driver{
		shared:   shared,
		ring:     ring,
		channels: channels,
		scratch:  make([]float32, scratchSamples),
	}
}

// Render is a RenderFunc.
func (d *Driver) Render(out []byte, format SampleFormat) {
	size := format.Size()
	if size == 0 {
		clear(out)
		return
	}

	gate := d.shared.RenderGate()
	if !gate.Audible {
		format.Silence(out)
		return
	}

	if gate.Clear {
		d.ring.Discard()
		d.partial = 0
		d.shared.ClearDone(gate.Epoch)
	}

	total := len(out) / size
	consumed := 0
	for consumed < total {
		chunk := d.scratch[:min(len(d.scratch), total-consumed)]
		n := d.ring.Pop(chunk)
		for i, v := range chunk[:n] {
			format.Put(out[(consumed+i)*size:], v*gate.Volume)
		}
		consumed += n
		if n < len(chunk) {
			break
		}
	}
	format.Silence(out[consumed*size:])

	if consumed == 0 {
		return
	}
	d.partial += consumed
	frames := d.partial / d.channels
	d.partial %= d.channels
	if frames > 0 {
		d.shared.Advance(uint64(frames), gate.Epoch)
	}
}
