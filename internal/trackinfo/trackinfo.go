// Package trackinfo reads display metadata from audio file tags.
package trackinfo

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhowden/tag"
	"github.com/mattn/go-runewidth"
)

// Info is the tag metadata shown for the current track.
type Info struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Year        int
	Track       int
	Genre       string
	// Tagged is false when the file carried no readable tags.
	Tagged bool
}

// Read returns tag metadata for path. Files without tags still yield an Info
// titled after the file name; only failing to open the file is an error.
func Read(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Untagged(path), nil //nolint:nilerr // untagged files are expected
	}

	title := Clean(m.Title())
	if title == "" {
		title = baseTitle(path)
	}

	track, _ := m.Track()

	albumArtist := m.AlbumArtist()
	if albumArtist == "" {
		albumArtist = m.Artist()
	}

	return &Info{
		Path:        path,
		Title:       title,
		Artist:      Clean(m.Artist()),
		AlbumArtist: Clean(albumArtist),
		Album:       Clean(m.Album()),
		Year:        m.Year(),
		Track:       track,
		Genre:       Clean(m.Genre()),
		Tagged:      true,
	}, nil
}

// Untagged builds an Info from the file name alone.
func Untagged(path string) *Info {
	return &Info{Path: path, Title: baseTitle(path)}
}

func baseTitle(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Label is "Artist - Title", or the title alone when there is no artist.
func (i *Info) Label() string {
	if i.Artist == "" {
		return i.Title
	}
	return i.Artist + " - " + i.Title
}

// Clean drops control characters and invalid UTF-8 from tag text, maps
// non-breaking spaces to spaces and trims the result.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size <= 1:
		case r == '\u00a0':
			b.WriteByte(' ')
		case r != '\t' && unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Truncate shortens s to width terminal cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
