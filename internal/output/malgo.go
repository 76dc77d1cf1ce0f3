package output

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

// MalgoHost opens streams on the default playback device through miniaudio.
type MalgoHost struct {
	ctx *malgo.AllocatedContext
	log logrus.FieldLogger
}

var _ Host = (*MalgoHost)(nil)

// NewMalgoHost initializes the miniaudio context.
func NewMalgoHost(log logrus.FieldLogger) (*MalgoHost, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.WithField("component", "miniaudio").Debug(strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	return &MalgoHost{ctx: ctx, log: log}, nil
}

// Open initializes the default device at the requested rate and channel
// count. Native formats other than f32 and s16 fall back to f32.
func (h *MalgoHost) Open(cfg StreamConfig, render RenderFunc) (Stream, error) {
	s := &malgoStream{}
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			render(out, SampleFormat(s.format.Load()))
		},
		Stop: func() {
			h.log.Warn("audio device stopped by backend")
		},
	}

	requested := cfg.Format
	if requested == U16 {
		h.log.Warn("u16 output not supported by backend, using f32")
		requested = F32
	}

	dev, err := h.initDevice(cfg, requested, callbacks)
	if err != nil {
		return nil, err
	}

	format, ok := fromMalgo(dev.PlaybackFormat())
	if !ok {
		h.log.WithField("native", dev.PlaybackFormat()).Info("unsupported native sample format, using f32")
		dev.Uninit()
		if dev, err = h.initDevice(cfg, F32, callbacks); err != nil {
			return nil, err
		}
		format = F32
	}

	s.dev = dev
	s.format.Store(int32(format))
	h.log.WithFields(logrus.Fields{
		"rate":     cfg.SampleRate,
		"channels": cfg.Channels,
		"format":   format,
	}).Debug("output stream opened")
	return s, nil
}

func (h *MalgoHost) initDevice(cfg StreamConfig, format SampleFormat, callbacks malgo.DeviceCallbacks) (*malgo.Device, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = toMalgo(format)
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = cfg.SampleRate
	deviceConfig.PeriodSizeInMilliseconds = cfg.PeriodMs

	dev, err := malgo.InitDevice(h.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	return dev, nil
}

// Close releases the miniaudio context.
func (h *MalgoHost) Close() error {
	if h.ctx == nil {
		return nil
	}
	err := h.ctx.Uninit()
	h.ctx.Free()
	h.ctx = nil
	return err
}

type malgoStream struct {
	dev       *malgo.Device
	format    atomic.Int32
	closeOnce sync.Once
}

func (s *malgoStream) Start() error {
	return s.dev.Start()
}

func (s *malgoStream) Close() error {
	s.closeOnce.Do(func() {
		// Uninit stops the device and waits for the callback to return
		s.dev.Uninit()
	})
	return nil
}

func (s *malgoStream) Format() SampleFormat {
	return SampleFormat(s.format.Load())
}

func toMalgo(f SampleFormat) malgo.FormatType {
	switch f {
	case F32:
		return malgo.FormatF32
	case S16:
		return malgo.FormatS16
	default:
		return malgo.FormatUnknown
	}
}

func fromMalgo(f malgo.FormatType) (SampleFormat, bool) {
	switch f {
	case malgo.FormatF32:
		return F32, true
	case malgo.FormatS16:
		return S16, true
	default:
		return FormatAuto, false
	}
}
