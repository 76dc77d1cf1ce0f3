package player

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/probe"
	"github.com/llehouerou/undertow/internal/ringbuf"
)

// worker decodes one track into the ring buffer. It owns the probe result
// exclusively and closes it on exit.
type worker struct {
	gen    uint64
	shared *playback.Shared
	res    *probe.Result
	ring   *ringbuf.Producer
	cmds   <-chan decoderCommand
	sink   playback.Sink
	log    logrus.FieldLogger

	backoff      time.Duration
	pauseBackoff time.Duration
	timer        *time.Timer
}

type waitResult int

const (
	waitTimeout waitResult = iota
	waitSeeked
	waitStopped
)

func (w *worker) run() {
	defer func() {
		if err := w.res.Close(); err != nil {
			w.log.WithError(err).Debug("closing track")
		}
	}()
	defer w.shared.Finish(w.gen)

	track := w.res.Track

	w.timer = time.NewTimer(w.backoff)
	w.timer.Stop()
	defer w.timer.Stop()

	for {
		switch w.poll() {
		case waitStopped:
			w.log.Debug("decoder stopped")
			return
		case waitSeeked, waitTimeout:
		}

		if active, _ := w.shared.ActiveFor(w.gen); !active {
			w.log.Debug("decoder inactive")
			return
		}

		pkt, err := w.res.Reader.NextPacket()
		if errors.Is(err, io.EOF) {
			if w.drain() {
				continue
			}
			w.log.Debug("end of stream")
			return
		}
		if err != nil {
			w.fail(errmsg.OpPlaybackDecode, err)
			return
		}
		if pkt.TrackID != track.ID {
			continue
		}

		samples, err := w.res.Decoder.Decode(pkt)
		if err != nil {
			w.log.WithError(err).WithField("timestamp", pkt.Timestamp).Warn("skipping undecodable packet")
			continue
		}

		if !w.push(samples) {
			return
		}
	}
}

// poll handles at most one pending command without blocking.
func (w *worker) poll() waitResult {
	select {
	case cmd := <-w.cmds:
		return w.handle(cmd)
	default:
		return waitTimeout
	}
}

func (w *worker) handle(cmd decoderCommand) waitResult {
	switch cmd.op {
	case decoderStop:
		return waitStopped
	case decoderSeek:
		if !w.seek(cmd.target) {
			return waitTimeout
		}
		return waitSeeked
	default:
		return waitTimeout
	}
}

// wait blocks for a command or until d elapses.
func (w *worker) wait(d time.Duration) waitResult {
	w.timer.Reset(d)
	defer w.timer.Stop()

	select {
	case cmd := <-w.cmds:
		return w.handle(cmd)
	case <-w.timer.C:
		return waitTimeout
	}
}

// idle waits one backoff interval, longer when paused. It returns false when
// the worker must exit.
func (w *worker) idle() (waitResult, bool) {
	active, paused := w.shared.ActiveFor(w.gen)
	if !active {
		return waitStopped, false
	}
	d := w.backoff
	if paused {
		d = w.pauseBackoff
	}
	r := w.wait(d)
	return r, r != waitStopped
}

// push writes samples to the ring, waiting while it is full or while a seek
// flush has not been performed yet. A seek during the wait drops the rest
// of samples. It returns false when the worker must exit.
func (w *worker) push(samples []float32) bool {
	for len(samples) > 0 {
		if w.shared.ClearPending(w.gen) {
			r, ok := w.idle()
			if !ok {
				return false
			}
			if r == waitSeeked {
				return true
			}
			continue
		}

		n := w.ring.Push(samples)
		samples = samples[n:]
		if len(samples) == 0 {
			return true
		}

		r, ok := w.idle()
		if !ok {
			return false
		}
		if r == waitSeeked {
			return true
		}
	}
	return true
}

// drain waits at end of stream until the output has consumed every queued
// sample. It returns true when a seek restarted decoding.
func (w *worker) drain() bool {
	for w.ring.Free() < w.ring.Capacity() {
		r, ok := w.idle()
		if !ok {
			return false
		}
		if r == waitSeeked {
			return true
		}
	}
	return false
}

// seek repositions the container and publishes the new position. A failed
// seek leaves the state untouched and reports false.
func (w *worker) seek(target uint64) bool {
	log := w.log.WithField("target", target)

	got, err := w.res.Reader.Seek(target)
	if err != nil {
		w.fail(errmsg.OpPlaybackSeek, err)
		return false
	}
	w.res.Decoder.Reset()

	if !w.shared.ApplySeek(w.gen, target) {
		log.Debug("seek on stale track ignored")
		return false
	}
	log.WithField("landed", got).Debug("seeked")
	return true
}

func (w *worker) fail(op errmsg.Op, err error) {
	w.log.WithError(err).WithField("op", string(op)).Error("decoder error")
	w.sink.Emit(playback.ErrorEvent{Op: op, Path: w.res.Path, Err: err})
}
