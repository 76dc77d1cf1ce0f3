package output

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    SampleFormat
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"F32", F32, false},
		{" s16 ", S16, false},
		{"u16", U16, false},
		{"s24", FormatAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			back, err := ParseFormat(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, back)
		})
	}
}

func TestSampleFormat_Put(t *testing.T) {
	tests := []struct {
		name   string
		format SampleFormat
		in     float32
		want   uint32
	}{
		{"f32 half", F32, 0.5, math.Float32bits(0.5)},
		{"f32 negative zero", F32, float32(math.Copysign(0, -1)), 0},
		{"f32 passes out of range", F32, 1.5, math.Float32bits(1.5)},
		{"s16 full scale", S16, 1, 32767},
		{"s16 negative full scale", S16, -1, uint32(uint16(0x8001))},
		{"s16 half rounds", S16, 0.5, 16384},
		{"s16 clamps", S16, 2, 32767},
		{"s16 zero", S16, 0, 0},
		{"u16 zero is midpoint", U16, 0, 32768},
		{"u16 full scale", U16, 1, 65535},
		{"u16 negative full scale", U16, -1, 1},
		{"u16 clamps", U16, -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 4)
			tt.format.Put(buf, tt.in)
			var got uint32
			if tt.format.Size() == 4 {
				got = binary.LittleEndian.Uint32(buf)
			} else {
				got = uint32(binary.LittleEndian.Uint16(buf))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSampleFormat_Silence(t *testing.T) {
	for _, f := range []SampleFormat{F32, S16, U16} {
		t.Run(f.String(), func(t *testing.T) {
			buf := make([]byte, 8*f.Size())
			for i := range buf {
				buf[i] = 0xAA
			}
			f.Silence(buf)

			want := make([]byte, f.Size())
			f.Put(want, 0)
			for i := 0; i < len(buf); i += f.Size() {
				assert.Equal(t, want, buf[i:i+f.Size()], "sample %d", i/f.Size())
			}
		})
	}
}

func TestSampleFormat_Size(t *testing.T) {
	assert.Equal(t, 4, F32.Size())
	assert.Equal(t, 2, S16.Size())
	assert.Equal(t, 2, U16.Size())
	assert.Equal(t, 0, FormatAuto.Size())
}
