package fileid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Identity captures the cache key for a checked file: absolute path plus
// size and modification time. Any change to size or mtime makes a previously
// cached verdict stale even when the path is unchanged. Immutable once
// captured.
type Identity struct {
	Path    string
	Size    int64
	ModTime int64 // unix seconds
}

// Capture stats the file and builds its identity. The path is made absolute
// so identities compare consistently regardless of the caller's working
// directory.
func Capture(path string) (Identity, error) {
	absolute, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return Identity{}, fmt.Errorf("resolve path %q: %w", path, err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return Identity{}, err
	}
	if info.IsDir() {
		return Identity{}, fmt.Errorf("%s is a directory", absolute)
	}
	return Identity{
		Path:    absolute,
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}, nil
}

// Key returns a stable string form used for de-duplication maps.
func (id Identity) Key() string {
	return fmt.Sprintf("%s|%d|%d", id.Path, id.Size, id.ModTime)
}

// Base returns the file name without its directory.
func (id Identity) Base() string {
	return filepath.Base(id.Path)
}
