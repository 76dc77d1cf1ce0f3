// Package output renders ring buffer samples into an audio device stream.
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// SampleFormat is the sample representation of a device stream.
type SampleFormat int

const (
	// FormatAuto asks the host for the device's native format. A started
	// stream never reports it.
	FormatAuto SampleFormat = iota
	F32
	S16
	U16
)

// u16Silence is the equilibrium value of unsigned 16-bit audio.
const u16Silence = 1 << 15

// String returns the config name of the format.
func (f SampleFormat) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case F32:
		return "f32"
	case S16:
		return "s16"
	case U16:
		return "u16"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// Size returns the encoded size of one sample in bytes, 0 for FormatAuto.
func (f SampleFormat) Size() int {
	switch f {
	case F32:
		return 4
	case S16, U16:
		return 2
	default:
		return 0
	}
}

// ParseFormat parses a config value. Empty means auto.
func ParseFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "f32":
		return F32, nil
	case "s16":
		return S16, nil
	case "u16":
		return U16, nil
	default:
		return FormatAuto, fmt.Errorf("unknown sample format %q", s)
	}
}

// Put encodes v little-endian at the start of dst. Values outside [-1, 1]
// are clamped for the integer formats.
func (f SampleFormat) Put(dst []byte, v float32) {
	switch f {
	case F32:
		if v == 0 {
			v = 0 // drop the sign of -0
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	case S16:
		binary.LittleEndian.PutUint16(dst, uint16(toInt16(v)))
	case U16:
		binary.LittleEndian.PutUint16(dst, uint16(int32(toInt16(v))+u16Silence))
	}
}

// Silence fills dst with the format's equilibrium value.
func (f SampleFormat) Silence(dst []byte) {
	switch f {
	case U16:
		for i := 0; i+1 < len(dst); i += 2 {
			binary.LittleEndian.PutUint16(dst[i:], u16Silence)
		}
	default:
		clear(dst)
	}
}

func toInt16(v float32) int16 {
	x := float64(v)
	switch {
	case math.IsNaN(x):
		return 0
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}
	return int16(math.Round(x * math.MaxInt16))
}
