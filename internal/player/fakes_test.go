package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/undertow/internal/output"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/probe"
)

const fakePacketFrames = 4800

var errFakeRead = errors.New("fake read failure")

// sampleAt is the value of every channel of frame f in a fake track. It is
// never zero so silence is distinguishable.
func sampleAt(f uint64) float32 {
	return float32(f%1000+1) / 2000
}

type fakeFile struct {
	rate          uint32
	channels      int
	frames        uint64
	unknownLength bool
	// foreignEvery makes every nth read return a packet of another track.
	foreignEvery int
	// readErrAt fails reads at or after this frame; 0 disables.
	readErrAt  uint64
	seekErr    error
	badPackets map[uint64]bool
}

func monoFile(seconds int) fakeFile {
	return fakeFile{rate: 48000, channels: 1, frames: uint64(seconds) * 48000}
}

type fakeReader struct {
	mu     sync.Mutex
	file   fakeFile
	pos    uint64
	reads  int
	seeks  []uint64
	closed bool
}

func (r *fakeReader) DefaultTrack() (probe.Track, bool) {
	return probe.Track{
		ID:          0,
		Codec:       "FAKE",
		SampleRate:  r.file.rate,
		Channels:    r.file.channels,
		Frames:      r.file.frames,
		FramesKnown: !r.file.unknownLength,
	}, true
}

func (r *fakeReader) NextPacket() (probe.Packet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reads++
	if r.file.foreignEvery > 0 && r.reads%r.file.foreignEvery == 0 {
		data := make([][2]float64, 16)
		for i := range data {
			data[i] = [2]float64{0.99, 0.99}
		}
		return probe.Packet{TrackID: 1, Timestamp: r.pos, Data: data}, nil
	}
	if r.file.readErrAt > 0 && r.pos >= r.file.readErrAt {
		return probe.Packet{}, errFakeRead
	}
	if r.pos >= r.file.frames {
		return probe.Packet{}, io.EOF
	}

	n := min(fakePacketFrames, r.file.frames-r.pos)
	data := make([][2]float64, n)
	for i := range data {
		v := float64(sampleAt(r.pos + uint64(i)))
		data[i] = [2]float64{v, v}
	}
	pkt := probe.Packet{TrackID: 0, Timestamp: r.pos, Data: data}
	r.pos += n
	return pkt, nil
}

func (r *fakeReader) Seek(frame uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeks = append(r.seeks, frame)
	if r.file.seekErr != nil {
		return 0, r.file.seekErr
	}
	r.pos = min(frame, r.file.frames)
	return r.pos, nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Seeks() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seeks...)
}

func (r *fakeReader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// fakeDecoder fails on the packets listed in bad.
type fakeDecoder struct {
	inner probe.Decoder
	bad   map[uint64]bool
}

func (d *fakeDecoder) Decode(p probe.Packet) ([]float32, error) {
	if d.bad[p.Timestamp] {
		return nil, probe.ErrCorruptPacket
	}
	return d.inner.Decode(p)
}

func (d *fakeDecoder) Reset() { d.inner.Reset() }

type recordSink struct {
	mu     sync.Mutex
	events []playback.Event
}

func (s *recordSink) Emit(e playback.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordSink) errors() []playback.ErrorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []playback.ErrorEvent
	for _, e := range s.events {
		if ev, ok := e.(playback.ErrorEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordSink) tracks() []playback.TrackEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []playback.TrackEvent
	for _, e := range s.events {
		if ev, ok := e.(playback.TrackEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordSink) positions() []playback.PositionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []playback.PositionEvent
	for _, e := range s.events {
		if ev, ok := e.(playback.PositionEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

type harness struct {
	t      *testing.T
	host   *output.Mock
	sink   *recordSink
	hook   *test.Hook
	player *Player

	mu      sync.Mutex
	files   map[string]fakeFile
	readers map[string][]*fakeReader
}

// newHarness must be called inside a synctest bubble; the caller closes the
// player before the bubble ends.
func newHarness(t *testing.T, files map[string]fakeFile) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		t:       t,
		host:    output.NewMock(),
		sink:    &recordSink{},
		hook:    hook,
		files:   files,
		readers: make(map[string][]*fakeReader),
	}

	p, err := New(Options{
		Host:   h.host,
		Probe:  h.probe,
		Shared: playback.NewShared(1),
		Sink:   h.sink,
		Log:    logger,
	})
	require.NoError(t, err)
	h.player = p
	return h
}

func (h *harness) probe(path string) (*probe.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	r := &fakeReader{file: f}
	h.readers[path] = append(h.readers[path], r)
	track, _ := r.DefaultTrack()
	return &probe.Result{
		Path:    path,
		Size:    int64(f.frames) * 2,
		Reader:  r,
		Decoder: &fakeDecoder{inner: probe.NewDecoder(f.channels), bad: f.badPackets},
		Track:   track,
	}, nil
}

// reader returns the most recent reader opened for path.
func (h *harness) reader(path string) *fakeReader {
	h.mu.Lock()
	defer h.mu.Unlock()
	rs := h.readers[path]
	require.NotEmpty(h.t, rs, "no reader for %s", path)
	return rs[len(rs)-1]
}

func (h *harness) send(cmd Command) {
	h.t.Helper()
	require.NoError(h.t, h.player.Send(cmd))
}

// render drives the current stream for frames frames.
func (h *harness) render(frames int) []float32 {
	h.t.Helper()
	s := h.host.Last()
	require.NotNil(h.t, s, "no stream opened")
	return s.RenderFloats(frames)
}

func (h *harness) close() {
	h.t.Helper()
	require.NoError(h.t, h.player.Close())
}

func (h *harness) loggedAt(level logrus.Level, msg string) bool {
	for _, e := range h.hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}
