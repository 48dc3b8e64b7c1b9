package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TrackInfo carries the tag metadata shown in reports. Fields fall back to
// path-derived values when the tags are missing or unreadable; tag problems
// never affect a verdict.
type TrackInfo struct {
	Title  string
	Artist string
	Album  string
}

// Read extracts track metadata from the file, falling back to the
// surrounding directory layout (Artist/Album/Track) for anything missing.
func Read(path string) TrackInfo {
	info := fromPath(path)

	file, err := os.Open(path)
	if err != nil {
		return info
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return info
	}

	if title := strings.TrimSpace(meta.Title()); title != "" {
		info.Title = title
	}
	if artist := strings.TrimSpace(meta.Artist()); artist != "" {
		info.Artist = artist
	}
	if album := strings.TrimSpace(meta.Album()); album != "" {
		info.Album = album
	}
	return info
}

// Label formats the track as "Artist - Title" for log lines, degrading to
// whichever part is known.
func (t TrackInfo) Label() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	default:
		return ""
	}
}

// fromPath derives metadata from the path layout as a fallback:
// .../Artist/Album/Track.ext.
func fromPath(path string) TrackInfo {
	info := TrackInfo{}

	base := filepath.Base(path)
	info.Title = strings.TrimSuffix(base, filepath.Ext(base))

	parent := filepath.Dir(path)
	if parent != "." && parent != string(filepath.Separator) {
		info.Album = filepath.Base(parent)
		grandparent := filepath.Dir(parent)
		if grandparent != "." && grandparent != string(filepath.Separator) {
			info.Artist = filepath.Base(grandparent)
		}
	}
	return info
}
