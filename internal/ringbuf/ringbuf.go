// Package ringbuf provides a bounded lock-free single-producer/single-consumer
// queue of interleaved float32 samples.
//
// The queue is split into a Producer and a Consumer end. Exactly one goroutine
// may use each end; no lock is taken on either side. Ordering between the two
// ends is established by the atomic head (written by the producer) and tail
// (written by the consumer) counters.
package ringbuf

import "sync/atomic"

// SizeFor returns the capacity, in samples, of a buffer holding one second
// of audio at the given sample rate and channel count.
func SizeFor(sampleRate uint32, channels int) int {
	if channels <= 0 {
		channels = 1
	}
	return int(sampleRate) * channels
}

type buffer struct {
	data []float32
	size uint64

	// head and tail are monotonically increasing counters; their difference is
	// the number of queued samples. Padding keeps them on separate cache lines.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte
}

// Producer is the write end of a ring buffer.
type Producer struct {
	b *buffer
}

// Consumer is the read end of a ring buffer.
type Consumer struct {
	b *buffer
}

// New allocates a ring buffer holding capacity samples and returns its two
// ends. A non-positive capacity is treated as 1.
func New(capacity int) (*Producer, *Consumer) {
	if capacity <= 0 {
		capacity = 1
	}
	b := &buffer{
		data: make([]float32, capacity),
		size: uint64(capacity),
	}
	return &Producer{b: b}, &Consumer{b: b}
}

// Capacity returns the total number of samples the buffer can hold.
func (p *Producer) Capacity() int { return int(p.b.size) }

// Free returns the number of samples that can be pushed without overwriting.
func (p *Producer) Free() int {
	head := p.b.head.Load()
	tail := p.b.tail.Load()
	return int(p.b.size - (head - tail))
}

// Push copies as many samples as fit and returns how many were written.
// It never blocks.
func (p *Producer) Push(samples []float32) int {
	b := p.b
	head := b.head.Load()
	tail := b.tail.Load()

	n := min(len(samples), int(b.size-(head-tail)))
	if n == 0 {
		return 0
	}

	start := int(head % b.size)
	first := min(n, int(b.size)-start)
	copy(b.data[start:start+first], samples[:first])
	copy(b.data[:n-first], samples[first:n])

	b.head.Store(head + uint64(n))
	return n
}

// Capacity returns the total number of samples the buffer can hold.
func (c *Consumer) Capacity() int { return int(c.b.size) }

// Len returns the number of queued samples.
func (c *Consumer) Len() int {
	head := c.b.head.Load()
	tail := c.b.tail.Load()
	return int(head - tail)
}

// Pop moves up to len(dst) queued samples into dst and returns the count.
// It never blocks.
func (c *Consumer) Pop(dst []float32) int {
	b := c.b
	head := b.head.Load()
	tail := b.tail.Load()

	n := min(len(dst), int(head-tail))
	if n == 0 {
		return 0
	}

	start := int(tail % b.size)
	first := min(n, int(b.size)-start)
	copy(dst[:first], b.data[start:start+first])
	copy(dst[first:n], b.data[:n-first])

	b.tail.Store(tail + uint64(n))
	return n
}

// Discard drops every queued sample and returns how many were dropped.
// Samples pushed concurrently with the call may survive it.
func (c *Consumer) Discard() int {
	head := c.b.head.Load()
	tail := c.b.tail.Load()
	c.b.tail.Store(head)
	return int(head - tail)
}
