package tags

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFallsBackToPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "The Band", "Great Album", "01 Opener.mp3")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Not a real MP3, so tag parsing fails and the path fallback applies.
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info := Read(path)
	if info.Title != "01 Opener" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Album != "Great Album" {
		t.Errorf("Album = %q", info.Album)
	}
	if info.Artist != "The Band" {
		t.Errorf("Artist = %q", info.Artist)
	}
}

func TestReadMissingFile(t *testing.T) {
	info := Read(filepath.Join(t.TempDir(), "ghost.mp3"))
	if info.Title != "ghost" {
		t.Errorf("Title = %q, want path-derived fallback", info.Title)
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		info TrackInfo
		want string
	}{
		{TrackInfo{Artist: "The Band", Title: "Opener"}, "The Band - Opener"},
		{TrackInfo{Title: "Opener"}, "Opener"},
		{TrackInfo{Artist: "The Band"}, ""},
		{TrackInfo{}, ""},
	}
	for _, tc := range cases {
		if got := tc.info.Label(); got != tc.want {
			t.Errorf("Label(%+v) = %q, want %q", tc.info, got, tc.want)
		}
	}
}
