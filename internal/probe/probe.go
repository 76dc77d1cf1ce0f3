// Package probe resolves an audio file into a decodable track.
//
// Probe sniffs the container from the file header, using the extension as a
// hint, and returns a FormatReader that yields packets of the default track
// together with a Decoder turning those packets into interleaved float32
// samples.
package probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
)

// Probe errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported container format")
	ErrNoDefaultTrack    = errors.New("no default track")
	ErrNoSampleRate      = errors.New("no sample rate")
	ErrEmptyPacket       = errors.New("empty packet")
	ErrCorruptPacket     = errors.New("corrupt packet")
)

// DefaultChannels is assumed when a container does not declare a layout.
const DefaultChannels = 2

// Track describes a decodable track.
type Track struct {
	ID         int
	Codec      string
	SampleRate uint32
	Channels   int
	// Frames is the declared length; only meaningful when FramesKnown.
	Frames      uint64
	FramesKnown bool
}

// Packet is a unit read from a container. Data is only valid until the next
// call to NextPacket.
type Packet struct {
	TrackID   int
	Timestamp uint64 // in frames
	Data      [][2]float64
}

// FormatReader reads packets from an opened container.
type FormatReader interface {
	// DefaultTrack returns the track playback should use.
	DefaultTrack() (Track, bool)
	// NextPacket returns the next packet, or io.EOF at end of stream.
	NextPacket() (Packet, error)
	// Seek repositions to the nearest frame at or before frame and returns it.
	Seek(frame uint64) (uint64, error)
	Close() error
}

// Decoder turns packets into interleaved float32 samples.
type Decoder interface {
	// Decode returns samples valid until the next call to Decode.
	Decode(p Packet) ([]float32, error)
	// Reset discards internal state after a seek.
	Reset()
}

// Result is a probed file ready for decoding.
type Result struct {
	Path    string
	Size    int64
	Reader  FormatReader
	Decoder Decoder
	Track   Track
}

// Close releases the reader and the underlying file.
func (r *Result) Close() error {
	return r.Reader.Close()
}

// Func is the signature of Probe, used to inject fakes.
type Func func(path string) (*Result, error)

// Probe opens path, resolves its container and returns the default track.
func Probe(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s: is a directory", path)
	}

	c, err := resolve(f, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	reader, err := c.open(c.name, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	track, ok := reader.DefaultTrack()
	if !ok {
		reader.Close()
		return nil, ErrNoDefaultTrack
	}

	return &Result{
		Path:    path,
		Size:    info.Size(),
		Reader:  reader,
		Decoder: NewDecoder(track.Channels),
		Track:   track,
	}, nil
}

// IsSupported reports whether the extension of path names a known container.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range containers {
		if c.hasExt(ext) {
			return true
		}
	}
	return false
}

// newStreamReader wraps a beep streamer. On error the returned reader is
// still valid for Close.
func newStreamReader(codec string, s beep.StreamSeekCloser, format beep.Format, file io.Closer) (*streamReader, error) {
	r := &streamReader{
		s:    s,
		file: file,
		buf:  make([][2]float64, packetFrames),
	}

	if format.SampleRate <= 0 {
		return r, ErrNoSampleRate
	}

	// beep decoders expose at most two channels
	channels := min(format.NumChannels, 2)
	if channels <= 0 {
		channels = DefaultChannels
	}

	r.track = Track{
		ID:         0,
		Codec:      codec,
		SampleRate: uint32(format.SampleRate),
		Channels:   channels,
	}
	if n := s.Len(); n > 0 {
		r.track.Frames = uint64(n)
		r.track.FramesKnown = true
	}
	r.hasTrack = true
	return r, nil
}
