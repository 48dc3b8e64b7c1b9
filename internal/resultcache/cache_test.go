package resultcache

import (
	"os"
	"path/filepath"
	"testing"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/fileid"
	"spectrocheck/internal/verdict"
)

func testIdentity(path string) fileid.Identity {
	return fileid.Identity{Path: path, Size: 1024, ModTime: 1700000000}
}

func passedVerdict() verdict.Verdict {
	return verdict.Passed("300kbps (within 10% tolerance)", analyzer.Measurement{
		DeclaredKbps: 320,
		ActualKbps:   300,
		Format:       "mp3",
	})
}

func TestStoreAndLookup(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "results.json")
	cache := New(cachePath, nil)

	id := testIdentity("/music/album/track.mp3")
	if err := cache.Store(id, passedVerdict()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	entry, ok := cache.Lookup(id)
	if !ok {
		t.Fatal("Lookup should find the stored entry")
	}
	if entry.Status != string(verdict.StatusPassed) {
		t.Errorf("Status = %q, want Passed", entry.Status)
	}
	if entry.DeclaredKbps != 320 || entry.ActualKbps != 300 {
		t.Errorf("bitrates not persisted: %+v", entry)
	}
}

func TestLookupMissesWhenFileChanged(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "results.json")
	cache := New(cachePath, nil)

	id := testIdentity("/music/track.mp3")
	if err := cache.Store(id, passedVerdict()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	grown := id
	grown.Size++
	if _, ok := cache.Lookup(grown); ok {
		t.Error("size change should be a cache miss")
	}

	touched := id
	touched.ModTime++
	if _, ok := cache.Lookup(touched); ok {
		t.Error("mtime change should be a cache miss")
	}

	if _, ok := cache.Lookup(id); !ok {
		t.Error("unchanged identity should still hit")
	}
}

func TestPersistAcrossInstances(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "results.json")

	id := testIdentity("/music/track.flac")
	first := New(cachePath, nil)
	if err := first.Store(id, passedVerdict()); err != nil {
		t.Fatalf("Store: %v", err)
	}

	second := New(cachePath, nil)
	if _, ok := second.Lookup(id); !ok {
		t.Error("entry should survive a restart")
	}
	if second.Count() != 1 {
		t.Errorf("Count = %d, want 1", second.Count())
	}
}

func TestCorruptCacheFileStartsEmpty(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(cachePath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	cache := New(cachePath, nil)
	if cache.Count() != 0 {
		t.Errorf("corrupt cache should start empty, got %d entries", cache.Count())
	}

	// And it must still accept new entries.
	if err := cache.Store(testIdentity("/music/t.mp3"), passedVerdict()); err != nil {
		t.Fatalf("Store after corrupt load: %v", err)
	}
}

func TestUnknownFieldsIgnoredOnLoad(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "results.json")
	body := `[{"path":"/music/t.mp3","size":1024,"mod_time":1700000000,"status":"Passed","reason":"ok","future_field":42}]`
	if err := os.WriteFile(cachePath, []byte(body), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	cache := New(cachePath, nil)
	entry, ok := cache.Lookup(fileid.Identity{Path: "/music/t.mp3", Size: 1024, ModTime: 1700000000})
	if !ok {
		t.Fatal("entry with unknown fields should load")
	}
	if entry.Status != "Passed" {
		t.Errorf("Status = %q", entry.Status)
	}
}

func TestClearAndRemove(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "results.json")
	cache := New(cachePath, nil)

	a := testIdentity("/music/a.mp3")
	b := testIdentity("/music/b.mp3")
	if err := cache.Store(a, passedVerdict()); err != nil {
		t.Fatalf("Store a: %v", err)
	}
	if err := cache.Store(b, passedVerdict()); err != nil {
		t.Fatalf("Store b: %v", err)
	}

	if err := cache.Remove(a.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := cache.Lookup(a); ok {
		t.Error("removed entry should miss")
	}
	if err := cache.Remove("/music/unknown.mp3"); err == nil {
		t.Error("removing an unknown path should error")
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cache.Count() != 0 {
		t.Errorf("Count after Clear = %d", cache.Count())
	}
}

func TestEmptyPathCacheIsNoop(t *testing.T) {
	cache := New("", nil)
	id := testIdentity("/music/t.mp3")
	if err := cache.Store(id, passedVerdict()); err != nil {
		t.Fatalf("Store on no-op cache: %v", err)
	}
	if _, ok := cache.Lookup(id); ok {
		t.Error("no-op cache should never hit")
	}
}
