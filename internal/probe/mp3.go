package probe

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/llehouerou/go-mp3"
)

// mp3FrameBytes is one decoded layer III frame: packetFrames stereo frames of
// 16-bit PCM, the only layout go-mp3 produces.
const mp3FrameBytes = packetFrames * 4

// mp3Reader reads go-mp3 output one MPEG frame per packet.
type mp3Reader struct {
	d     *mp3.Decoder
	file  io.Closer
	track Track

	pcm    []byte
	frames [][2]float64
}

var _ FormatReader = (*mp3Reader)(nil)

func openMP3(codec string, rs io.ReadSeekCloser) (FormatReader, error) {
	d, err := mp3.NewDecoder(rs)
	if err != nil {
		return nil, err
	}
	rate := d.SampleRate()
	if rate <= 0 {
		return nil, ErrNoSampleRate
	}

	r := &mp3Reader{
		d:      d,
		file:   rs,
		pcm:    make([]byte, mp3FrameBytes),
		frames: make([][2]float64, packetFrames),
		track: Track{
			Codec:      codec,
			SampleRate: uint32(rate), //nolint:gosec // sample rates fit
			Channels:   2,
		},
	}
	if n := d.SampleCount(); n > 0 {
		r.track.Frames = uint64(n)
		r.track.FramesKnown = true
	}
	return r, nil
}

func (r *mp3Reader) DefaultTrack() (Track, bool) {
	return r.track, true
}

func (r *mp3Reader) NextPacket() (Packet, error) {
	ts := max(r.d.SamplePosition(), 0)

	n, err := io.ReadFull(r.d, r.pcm)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Packet{}, err
	}
	frames := pcm16Frames(r.frames, r.pcm[:n])
	if frames == 0 {
		return Packet{}, io.EOF
	}
	return Packet{
		TrackID:   r.track.ID,
		Timestamp: uint64(ts),
		Data:      r.frames[:frames],
	}, nil
}

func (r *mp3Reader) Seek(frame uint64) (uint64, error) {
	if r.track.FramesKnown {
		frame = min(frame, r.track.Frames)
	}
	if err := r.d.SeekToSample(int64(frame)); err != nil { //nolint:gosec // clamped to the track length
		return 0, err
	}
	return uint64(max(r.d.SamplePosition(), 0)), nil
}

func (r *mp3Reader) Close() error {
	return r.file.Close()
}

// pcm16Frames converts little-endian 16-bit stereo PCM into dst and returns
// the number of whole frames written. A trailing partial frame is dropped.
func pcm16Frames(dst [][2]float64, pcm []byte) int {
	n := min(len(pcm)/4, len(dst))
	for i := range n {
		b := pcm[i*4 : i*4+4]
		dst[i][0] = float64(int16(binary.LittleEndian.Uint16(b[0:]))) / 32768 //nolint:gosec // audio samples
		dst[i][1] = float64(int16(binary.LittleEndian.Uint16(b[2:]))) / 32768 //nolint:gosec // audio samples
	}
	return n
}
