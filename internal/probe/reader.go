package probe

import (
	"errors"
	"io"
	"math"
	"os"

	"github.com/gopxl/beep/v2"
)

// packetFrames is the number of frames read per packet, one MPEG-1 layer III
// frame worth of audio.
const packetFrames = 1152

// streamReader exposes a beep streamer as a single-track FormatReader.
type streamReader struct {
	s        beep.StreamSeekCloser
	file     io.Closer
	track    Track
	hasTrack bool
	buf      [][2]float64
}

var _ FormatReader = (*streamReader)(nil)

func (r *streamReader) DefaultTrack() (Track, bool) {
	return r.track, r.hasTrack
}

func (r *streamReader) NextPacket() (Packet, error) {
	ts := r.s.Position()
	n, ok := r.s.Stream(r.buf)
	if n == 0 && !ok {
		if err := r.s.Err(); err != nil {
			return Packet{}, err
		}
		return Packet{}, io.EOF
	}
	return Packet{
		TrackID:   r.track.ID,
		Timestamp: uint64(max(ts, 0)),
		Data:      r.buf[:n],
	}, nil
}

func (r *streamReader) Seek(frame uint64) (uint64, error) {
	target := frame
	if r.track.FramesKnown && target > r.track.Frames {
		target = r.track.Frames
	}
	if err := r.s.Seek(int(target)); err != nil {
		return 0, err
	}
	return target, nil
}

func (r *streamReader) Close() error {
	err := r.s.Close()
	if r.file != nil {
		// Most beep decoders close the file themselves
		if ferr := r.file.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) {
			err = errors.Join(err, ferr)
		}
	}
	return err
}

// pcmDecoder interleaves stereo frames down to the track's channel count.
type pcmDecoder struct {
	channels int
	buf      []float32
}

// NewDecoder returns a Decoder producing interleaved samples for 1 or 2
// channels. Other counts are treated as stereo.
func NewDecoder(channels int) Decoder {
	if channels != 1 {
		channels = 2
	}
	return &pcmDecoder{channels: channels}
}

func (d *pcmDecoder) Decode(p Packet) ([]float32, error) {
	if len(p.Data) == 0 {
		return nil, ErrEmptyPacket
	}

	need := len(p.Data) * d.channels
	if cap(d.buf) < need {
		d.buf = make([]float32, need)
	}
	out := d.buf[:need]

	for i, frame := range p.Data {
		for c := range d.channels {
			v := frame[c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ErrCorruptPacket
			}
			out[i*d.channels+c] = float32(v)
		}
	}
	return out, nil
}

func (d *pcmDecoder) Reset() {}
