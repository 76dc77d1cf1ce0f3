// internal/output/mock.go
package output

import (
	"encoding/binary"
	"math"
	"sync"
)

// Mock is a Host test double. Tests drive the render callback through the
// recorded streams.
type Mock struct {
	mu       sync.Mutex
	format   SampleFormat
	openErr  error
	startErr error
	streams  []*MockStream
	closed   bool
}

var _ Host = (*Mock)(nil)

// NewMock creates a mock host whose streams negotiate f32.
func NewMock() *Mock {
	return &Mock{format: F32}
}

// SetFormat sets the format negotiated when a stream asks for FormatAuto.
func (m *Mock) SetFormat(f SampleFormat) {
	m.mu.Lock()
	m.format = f
	m.mu.Unlock()
}

// SetOpenError makes subsequent Open calls fail.
func (m *Mock) SetOpenError(err error) {
	m.mu.Lock()
	m.openErr = err
	m.mu.Unlock()
}

// SetStartError makes subsequent Start calls fail.
func (m *Mock) SetStartError(err error) {
	m.mu.Lock()
	m.startErr = err
	m.mu.Unlock()
}

func (m *Mock) Open(cfg StreamConfig, render RenderFunc) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	format := cfg.Format
	if format == FormatAuto {
		format = m.format
	}
	s := &MockStream{host: m, config: cfg, render: render, format: format}
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Streams returns every stream opened so far.
func (m *Mock) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockStream(nil), m.streams...)
}

// Last returns the most recently opened stream, or nil.
func (m *Mock) Last() *MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streams) == 0 {
		return nil
	}
	return m.streams[len(m.streams)-1]
}

// Active counts streams opened and not yet closed.
func (m *Mock) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.streams {
		if !s.closed {
			n++
		}
	}
	return n
}

// MockStream is a stream created by Mock.
type MockStream struct {
	host    *Mock
	config  StreamConfig
	render  RenderFunc
	format  SampleFormat
	started bool
	closed  bool
}

func (s *MockStream) Start() error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	if s.host.startErr != nil {
		return s.host.startErr
	}
	s.started = true
	return nil
}

func (s *MockStream) Close() error {
	s.host.mu.Lock()
	s.closed = true
	s.host.mu.Unlock()
	return nil
}

func (s *MockStream) Format() SampleFormat { return s.format }

// Config returns the configuration the stream was opened with.
func (s *MockStream) Config() StreamConfig { return s.config }

// Running reports whether the stream is started and not closed.
func (s *MockStream) Running() bool {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	return s.started && !s.closed
}

// Render invokes the callback for frames frames and returns the raw buffer.
// A stream that is not running yields nil.
func (s *MockStream) Render(frames int) []byte {
	if !s.Running() {
		return nil
	}
	out := make([]byte, frames*s.config.Channels*s.format.Size())
	s.render(out, s.format)
	return out
}

// RenderFloats is Render for f32 streams, decoded.
func (s *MockStream) RenderFloats(frames int) []float32 {
	raw := s.Render(frames)
	if raw == nil || s.format != F32 {
		return nil
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
