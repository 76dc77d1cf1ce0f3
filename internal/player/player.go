// Package player runs the playback engine: a command loop owning one
// pipeline per track (decoder worker, ring buffer, output stream) and a
// position reporter.
package player

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/output"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/probe"
	"github.com/llehouerou/undertow/internal/ringbuf"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("player closed")

// Defaults applied by New.
const (
	DefaultVolume       = 0.5
	DefaultBackoff      = 5 * time.Millisecond
	DefaultPauseBackoff = 10 * time.Millisecond

	commandBuffer        = 64
	decoderCommandBuffer = 16
)

// Options configures a Player. Host is required.
type Options struct {
	Host output.Host
	// Probe opens tracks; defaults to probe.Probe.
	Probe probe.Func
	// Shared is the state handle; a new one at DefaultVolume when nil.
	Shared *playback.Shared
	Sink   playback.Sink
	Log    logrus.FieldLogger

	// Format forces the output sample format; FormatAuto uses the device's.
	Format   output.SampleFormat
	PeriodMs uint32

	// Backoff is the decoder retry interval while the ring is full.
	Backoff      time.Duration
	PauseBackoff time.Duration

	ReportInterval time.Duration
	IdleInterval   time.Duration
}

// generation is the pipeline of one loaded track.
type generation struct {
	id         uint64
	path       string
	sampleRate uint32
	// frames bounds out-of-range seek targets when framesKnown.
	frames      uint64
	framesKnown bool
	stream      output.Stream
	cmds        chan decoderCommand
	done        chan struct{}
}

// Player serializes commands onto a single loop goroutine.
type Player struct {
	shared *playback.Shared
	host   output.Host
	probe  probe.Func
	sink   playback.Sink
	log    logrus.FieldLogger

	format       output.SampleFormat
	periodMs     uint32
	backoff      time.Duration
	pauseBackoff time.Duration

	sendMu sync.RWMutex
	closed bool
	cmds   chan Command
	done   chan struct{}

	cur      *generation
	lastGen  uint64
	decoders atomic.Int32
	joins    sync.WaitGroup

	stopReporter context.CancelFunc
	reporterDone chan struct{}
}

// New starts the command loop and the position reporter.
func New(opts Options) (*Player, error) {
	if opts.Host == nil {
		return nil, errors.New("player: nil output host")
	}
	p := &Player{
		shared:       opts.Shared,
		host:         opts.Host,
		probe:        opts.Probe,
		sink:         opts.Sink,
		log:          opts.Log,
		format:       opts.Format,
		periodMs:     opts.PeriodMs,
		backoff:      opts.Backoff,
		pauseBackoff: opts.PauseBackoff,
		cmds:         make(chan Command, commandBuffer),
		done:         make(chan struct{}),
		reporterDone: make(chan struct{}),
	}
	if p.shared == nil {
		p.shared = playback.NewShared(DefaultVolume)
	}
	if p.probe == nil {
		p.probe = probe.Probe
	}
	if p.sink == nil {
		p.sink = playback.Discard
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	if p.backoff <= 0 {
		p.backoff = DefaultBackoff
	}
	if p.pauseBackoff <= 0 {
		p.pauseBackoff = DefaultPauseBackoff
	}

	reporter := playback.NewReporter(p.shared, p.sink, opts.ReportInterval, opts.IdleInterval)
	ctx, cancel := context.WithCancel(context.Background())
	p.stopReporter = cancel
	go func() {
		defer close(p.reporterDone)
		reporter.Run(ctx)
	}()

	go p.loop()
	return p, nil
}

// Send queues cmd for the command loop.
func (p *Player) Send(cmd Command) error {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.cmds <- cmd
	return nil
}

// Close stops accepting commands and waits for the loop to tear down the
// current track. Safe to call twice.
func (p *Player) Close() error {
	p.sendMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.cmds)
	}
	p.sendMu.Unlock()

	<-p.done
	return nil
}

// Status returns a snapshot of the playback state.
func (p *Player) Status() playback.State { return p.shared.Snapshot() }

// ActiveDecoders counts decoder workers that have not exited yet.
func (p *Player) ActiveDecoders() int { return int(p.decoders.Load()) }

func (p *Player) loop() {
	defer close(p.done)

	for cmd := range p.cmds {
		switch cmd := cmd.(type) {
		case LoadAndPlay:
			p.load(cmd.Path)
		case TogglePlayback:
			paused := p.shared.TogglePaused()
			p.log.WithField("paused", paused).Debug("toggle playback")
		case VolumeChange:
			p.shared.SetVolume(cmd.Level)
			p.log.WithField("volume", cmd.Level).Debug("volume changed")
		case Seek:
			p.seek(cmd.PositionSeconds)
		}
	}

	p.shutdown()
}

// load replaces the current pipeline with one for path.
func (p *Player) load(path string) {
	log := p.log.WithField("path", path)

	p.shared.SetPlaying(false)
	p.retire()

	res, err := p.probe(path)
	if err != nil {
		p.fail(errmsg.OpPlaybackLoad, path, err)
		return
	}

	track := res.Track
	log = log.WithFields(logrus.Fields{
		"rate":     track.SampleRate,
		"channels": track.Channels,
		"codec":    track.Codec,
	})

	producer, consumer := ringbuf.New(ringbuf.SizeFor(track.SampleRate, track.Channels))
	driver := output.NewDriver(p.shared, consumer, track.Channels)

	stream, err := p.host.Open(output.StreamConfig{
		SampleRate: track.SampleRate,
		Channels:   track.Channels,
		Format:     p.format,
		PeriodMs:   p.periodMs,
	}, driver.Render)
	if err != nil {
		res.Close()
		p.fail(errmsg.OpPlaybackDevice, path, err)
		return
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		res.Close()
		p.fail(errmsg.OpPlaybackStart, path, err)
		return
	}

	p.lastGen++
	g := &generation{
		id:          p.lastGen,
		path:        path,
		sampleRate:  track.SampleRate,
		frames:      track.Frames,
		framesKnown: track.FramesKnown,
		stream:      stream,
		cmds:        make(chan decoderCommand, decoderCommandBuffer),
		done:        make(chan struct{}),
	}
	w := &worker{
		gen:          g.id,
		shared:       p.shared,
		res:          res,
		ring:         producer,
		cmds:         g.cmds,
		sink:         p.sink,
		log:          log.WithField("generation", g.id),
		backoff:      p.backoff,
		pauseBackoff: p.pauseBackoff,
	}

	// Published here, in command order, so a worker scheduled late cannot
	// undo a later load or toggle.
	p.shared.BeginTrack(g.id, track.SampleRate, track.Frames, track.FramesKnown)

	p.decoders.Add(1)
	go func() {
		defer close(g.done)
		defer p.decoders.Add(-1)
		w.run()
	}()
	p.cur = g

	var duration float64
	if track.FramesKnown && track.SampleRate > 0 {
		duration = float64(track.Frames) / float64(track.SampleRate)
	}
	log.WithFields(logrus.Fields{
		"size":   humanize.Bytes(uint64(max(res.Size, 0))),
		"format": stream.Format(),
	}).Info("track loaded")
	p.sink.Emit(playback.TrackEvent{
		Path:            path,
		SampleRate:      track.SampleRate,
		Channels:        track.Channels,
		Codec:           track.Codec,
		DurationSeconds: duration,
	})
}

// retire stops the current decoder without waiting for it and closes its
// stream.
func (p *Player) retire() {
	g := p.cur
	if g == nil {
		return
	}
	p.cur = nil

	p.sendDecoder(g, decoderCommand{op: decoderStop})

	p.joins.Add(1)
	go func() {
		defer p.joins.Done()
		<-g.done
		p.log.WithField("generation", g.id).Debug("decoder joined")
	}()

	if err := g.stream.Close(); err != nil {
		p.log.WithError(err).WithField("path", g.path).Warn("closing output stream")
	}
}

func (p *Player) seek(seconds float64) {
	g := p.cur
	if g == nil {
		p.log.Debug("seek ignored: no track")
		return
	}
	select {
	case <-g.done:
		p.log.Debug("seek ignored: decoder finished")
		return
	default:
	}

	target, ok := seekTarget(seconds, g.sampleRate, g.frames, g.framesKnown)
	if !ok {
		p.log.WithField("seconds", seconds).Debug("seek ignored: target out of range")
		return
	}
	p.sendDecoder(g, decoderCommand{op: decoderSeek, target: target})
}

// seekTarget converts seconds to a frame index; negative and NaN map to 0.
// A target beyond the uint64 range, +Inf included, clamps to the declared
// length and is rejected when the length is unknown.
func seekTarget(seconds float64, rate uint32, frames uint64, framesKnown bool) (uint64, bool) {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0, true
	}
	f := math.Round(seconds * float64(rate))
	if f < maxFrame {
		return uint64(f), true
	}
	if !framesKnown {
		return 0, false
	}
	return frames, true
}

// maxFrame is 2^64 as a float64; smaller values convert to uint64 exactly.
const maxFrame = float64(1 << 64)

// sendDecoder never blocks: the worker also exits once its generation stops
// playing, so a dropped stop is not lost.
func (p *Player) sendDecoder(g *generation, cmd decoderCommand) {
	select {
	case g.cmds <- cmd:
	default:
		p.log.WithFields(logrus.Fields{
			"generation": g.id,
			"op":         cmd.op,
		}).Warn("decoder command queue full, dropping command")
	}
}

func (p *Player) shutdown() {
	p.shared.SetPlaying(false)
	if g := p.cur; g != nil {
		p.retire()
		<-g.done
	}
	p.joins.Wait()

	p.stopReporter()
	<-p.reporterDone
	p.log.Debug("player stopped")
}

func (p *Player) fail(op errmsg.Op, path string, err error) {
	p.log.WithError(err).WithFields(logrus.Fields{
		"path": path,
		"op":   string(op),
	}).Error("playback error")
	p.sink.Emit(playback.ErrorEvent{Op: op, Path: path, Err: err})
}
