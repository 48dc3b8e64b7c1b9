package resultcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"spectrocheck/internal/fileid"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/verdict"
)

// Entry is one cached verdict. The size and mtime of the file at check time
// are embedded so a changed file misses the cache even at the same path.
// Unknown JSON fields are ignored on load, keeping old cache files readable
// as the schema grows.
type Entry struct {
	Path           string    `json:"path"`
	Size           int64     `json:"size"`
	ModTime        int64     `json:"mod_time"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason"`
	DeclaredKbps   int       `json:"declared_kbps,omitempty"`
	ActualKbps     int       `json:"actual_kbps,omitempty"`
	MaxFrequencyHz int       `json:"max_frequency_hz,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Cache provides thread-safe access to the persistent verdict cache. Entries
// are never removed automatically, so the file grows with the number of
// distinct files ever checked; at roughly 200 bytes per entry that is an
// accepted cost.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry // keyed by absolute file path
}

// New creates a cache instance backed by the given file. If path is empty,
// the cache is non-functional (all operations become no-ops). A missing,
// empty, or corrupted cache file is treated as empty rather than failing.
func New(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "resultcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load result cache",
			logging.String(logging.FieldEventType, "resultcache_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "previously checked files will be re-analyzed"))
	}

	return c
}

// Lookup returns the cached entry for the identity if one exists and the
// file is unchanged since it was stored.
func (c *Cache) Lookup(id fileid.Identity) (Entry, bool) {
	if c.path == "" || strings.TrimSpace(id.Path) == "" {
		return Entry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[id.Path]
	if !found {
		return Entry{}, false
	}
	if entry.Size != id.Size || entry.ModTime != id.ModTime {
		return Entry{}, false
	}
	return entry, true
}

// Store records a verdict for the identity and persists to disk. A prior
// entry for the same path is overwritten.
func (c *Cache) Store(id fileid.Identity, v verdict.Verdict) error {
	if strings.TrimSpace(id.Path) == "" {
		return errors.New("file path cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	entry := Entry{
		Path:           id.Path,
		Size:           id.Size,
		ModTime:        id.ModTime,
		Status:         string(v.Status),
		Reason:         v.Reason,
		DeclaredKbps:   v.Measurement.DeclaredKbps,
		ActualKbps:     v.Measurement.ActualKbps,
		MaxFrequencyHz: v.Measurement.MaxFrequencyHz,
		CheckedAt:      time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id.Path] = entry

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached verdict",
		logging.String(logging.FieldFile, id.Path),
		logging.String(logging.FieldStatus, entry.Status))
	return nil
}

// Remove deletes the entry for a path and persists the change.
func (c *Cache) Remove(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("file path cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[path]; !exists {
		return fmt.Errorf("path %q not found in cache", path)
	}

	delete(c.entries, path)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// List returns all entries sorted by CheckedAt descending (newest first).
func (c *Cache) List() []Entry {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CheckedAt.After(entries[j].CheckedAt)
	})

	return entries
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cleared result cache")
	return nil
}

// Count returns the number of cached entries.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Path returns the backing file location.
func (c *Cache) Path() string { return c.path }

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Path) != "" {
			c.entries[entry.Path] = entry
		}
	}

	c.logger.Debug("loaded result cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

// save writes the cache to disk atomically via a temp file rename.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	// Sort for deterministic output
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
