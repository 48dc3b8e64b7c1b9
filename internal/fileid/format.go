package fileid

import (
	"path/filepath"
	"strings"
)

// audioExtensions lists the container formats the detector recognizes.
// Everything else is skipped before any analyzer runs.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".ogg":  {},
	".m4a":  {},
	".aac":  {},
	".opus": {},
	".wma":  {},
	".alac": {},
	".ape":  {},
	".wav":  {},
}

// Format returns the lowercase container format derived from the file
// extension, without the leading dot. Empty when the file has no extension.
func Format(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return strings.TrimPrefix(ext, ".")
}

// IsAudio reports whether the path carries a recognized audio extension.
func IsAudio(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
