package probe

import "io"

const id3v2HeaderSize = 10

// id3v2Size returns the tag body size when header starts with an ID3v2 tag.
func id3v2Size(header []byte) (int64, bool) {
	if len(header) < id3v2HeaderSize || string(header[0:3]) != "ID3" {
		return 0, false
	}
	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	// Each byte only uses 7 bits (bit 7 is always 0)
	size := int64(header[6]&0x7F)<<21 | int64(header[7]&0x7F)<<14 | int64(header[8]&0x7F)<<7 | int64(header[9]&0x7F)
	return size, true
}

// skipID3v2 leaves r positioned after a leading ID3v2 tag, or at the start of
// the stream when there is none.
func skipID3v2(r io.ReadSeeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	header := make([]byte, id3v2HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}

	size, ok := id3v2Size(header[:n])
	if !ok {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	_, err = r.Seek(id3v2HeaderSize+size, io.SeekStart)
	return err
}
