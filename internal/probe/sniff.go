package probe

import (
	"bytes"
	"io"
	"slices"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const headerSize = 12

// header holds the first bytes of a file and, when it starts with an ID3v2
// tag, the first bytes following the tag.
type header struct {
	start []byte
	inner []byte
}

type container struct {
	name  string
	exts  []string
	match func(h header) bool
	open  func(codec string, rs io.ReadSeekCloser) (FormatReader, error)
}

// fromBeep adapts a beep decoder into a container opener.
func fromBeep(decode func(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error)) func(string, io.ReadSeekCloser) (FormatReader, error) {
	return func(codec string, rs io.ReadSeekCloser) (FormatReader, error) {
		s, format, err := decode(rs)
		if err != nil {
			return nil, err
		}
		r, err := newStreamReader(codec, s, format, rs)
		if err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	}
}

func (c container) hasExt(ext string) bool {
	return slices.Contains(c.exts, ext)
}

var containers = []container{
	{
		name: "MP3",
		exts: []string{".mp3"},
		match: func(h header) bool {
			if bytes.HasPrefix(h.start, []byte("ID3")) {
				return !bytes.HasPrefix(h.inner, []byte("fLaC"))
			}
			return isMPEGSync(h.start)
		},
		open: openMP3,
	},
	{
		name: "FLAC",
		exts: []string{".flac", ".fla"},
		match: func(h header) bool {
			return bytes.HasPrefix(h.start, []byte("fLaC")) || bytes.HasPrefix(h.inner, []byte("fLaC"))
		},
		open: fromBeep(func(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			// Some taggers prepend an ID3v2 tag the FLAC decoder doesn't handle
			if err := skipID3v2(rs); err != nil {
				return nil, beep.Format{}, err
			}
			return flac.Decode(rs)
		}),
	},
	{
		name: "WAV",
		exts: []string{".wav", ".wave"},
		match: func(h header) bool {
			return len(h.start) >= headerSize &&
				bytes.Equal(h.start[0:4], []byte("RIFF")) &&
				bytes.Equal(h.start[8:12], []byte("WAVE"))
		},
		open: fromBeep(func(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(rs)
		}),
	},
	{
		name: "Vorbis",
		exts: []string{".ogg", ".oga"},
		match: func(h header) bool {
			return bytes.HasPrefix(h.start, []byte("OggS"))
		},
		open: fromBeep(func(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(rs)
		}),
	},
}

// isMPEGSync checks for an MPEG audio frame sync word.
func isMPEGSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// resolve picks the container for rs. The container named by ext is tried
// first; when no header matches, ext alone decides.
func resolve(rs io.ReadSeeker, ext string) (container, error) {
	h, err := readHeader(rs)
	if err != nil {
		return container{}, err
	}

	hinted := -1
	for i, c := range containers {
		if c.hasExt(ext) {
			hinted = i
			break
		}
	}

	if hinted >= 0 && containers[hinted].match(h) {
		return containers[hinted], nil
	}
	for i, c := range containers {
		if i != hinted && c.match(h) {
			return c, nil
		}
	}
	if hinted >= 0 {
		return containers[hinted], nil
	}
	return container{}, ErrUnsupportedFormat
}

func readHeader(rs io.ReadSeeker) (header, error) {
	var h header

	start, err := readAt(rs, 0, headerSize)
	if err != nil {
		return h, err
	}
	h.start = start

	if size, ok := id3v2Size(start); ok {
		inner, err := readAt(rs, id3v2HeaderSize+size, headerSize)
		if err != nil {
			return h, err
		}
		h.inner = inner
	}

	_, err = rs.Seek(0, io.SeekStart)
	return h, err
}

// readAt reads up to n bytes at offset; short files yield a short slice.
func readAt(rs io.ReadSeeker, offset int64, n int) ([]byte, error) {
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(rs, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:read], nil
}
