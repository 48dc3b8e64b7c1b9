// Package watcher polls the music root for new audio files and hands
// stable ones to the pipeline. A file is considered stable once two
// consecutive scans observe the same size and modification time, so files
// still being written are left alone.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"spectrocheck/internal/config"
	"spectrocheck/internal/fileid"
	"spectrocheck/internal/logging"
)

// Trigger receives paths the watcher considers ready for analysis.
type Trigger func(path string)

type fileState struct {
	size       int64
	modTime    int64
	stable     bool
	dispatched bool
}

// Watcher scans a directory tree on an interval.
type Watcher struct {
	root     string
	interval time.Duration
	logger   *slog.Logger
	trigger  Trigger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	seen map[string]*fileState
}

// New builds a watcher over the configured music root.
func New(cfg *config.Config, trigger Trigger, logger *slog.Logger) *Watcher {
	interval := time.Duration(cfg.Watcher.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watcher{
		root:     cfg.Paths.MusicRootDir,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		trigger:  trigger,
		seen:     make(map[string]*fileState),
	}
}

// SetInterval overrides the poll interval. Used by tests.
func (w *Watcher) SetInterval(d time.Duration) {
	w.interval = d
}

// Start launches the polling loop. The first scan primes the known-file set
// without dispatching, so a restart does not re-check an entire library.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.run(runCtx)

	w.logger.Info("watcher started",
		logging.String("root", w.root),
		logging.Duration("interval", w.interval))
	return nil
}

// Stop halts polling and waits for an in-progress scan to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

// Running reports whether the polling loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	w.scan(true)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(false)
		}
	}
}

// Scan walks the root once. Exposed so tests can drive the watcher without
// waiting on the ticker.
func (w *Watcher) Scan() {
	w.scan(false)
}

func (w *Watcher) scan(prime bool) {
	current := make(map[string]struct{})

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("scan error", logging.String("path", path), logging.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !fileid.IsAudio(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		current[path] = struct{}{}
		w.observe(path, info.Size(), info.ModTime().Unix(), prime)
		return nil
	})
	if err != nil {
		w.logger.Warn("scan failed", logging.String("root", w.root), logging.Error(err))
	}

	for path := range w.seen {
		if _, ok := current[path]; !ok {
			delete(w.seen, path)
		}
	}
}

func (w *Watcher) observe(path string, size, modTime int64, prime bool) {
	state, known := w.seen[path]
	if !known {
		w.seen[path] = &fileState{size: size, modTime: modTime, dispatched: prime}
		return
	}

	if state.size != size || state.modTime != modTime {
		state.size = size
		state.modTime = modTime
		state.stable = false
		state.dispatched = false
		return
	}

	state.stable = true
	if state.dispatched {
		return
	}
	state.dispatched = true

	w.logger.Debug("file stable, dispatching",
		logging.String(logging.FieldFile, filepath.Base(path)))
	w.trigger(path)
}
