// Package daemon supervises the long-running spectrocheck services and
// enforces single-instance execution through a file lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"spectrocheck/internal/config"
	"spectrocheck/internal/deps"
	"spectrocheck/internal/history"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/notifications"
	"spectrocheck/internal/pipeline"
	"spectrocheck/internal/resultcache"
	"spectrocheck/internal/verdict"
	"spectrocheck/internal/watcher"
)

// Daemon owns the pipeline and watcher lifecycles.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	watcher  *watcher.Watcher
	hist     *history.Store
	cache    *resultcache.Cache
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Pipeline      pipeline.Stats
	WatcherActive bool
	CachePath     string
	CacheEntries  int
	HistoryDBPath string
	LockFilePath  string
	Dependencies  []deps.Status
	PID           int
}

// New constructs a daemon with initialized collaborators. The watcher and
// history store may be nil when those features are disabled.
func New(cfg *config.Config, p *pipeline.Pipeline, w *watcher.Watcher, hist *history.Store, cache *resultcache.Cache, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || p == nil || cache == nil || logger == nil {
		return nil, errors.New("daemon requires config, pipeline, cache, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewNoop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "spectrocheckd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pipeline: p,
		watcher:  w,
		hist:     hist,
		cache:    cache,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the pipeline and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another spectrocheck daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start pipeline: %w", err)
	}

	if d.watcher != nil && d.cfg.Watcher.Enabled {
		if err := d.watcher.Start(runCtx); err != nil {
			d.pipeline.Stop()
			_ = d.lock.Unlock()
			cancel()
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the watcher and pipeline and releases the daemon lock. The
// task in flight is allowed to finish; pending tasks are abandoned.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.pipeline.Stop()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.hist != nil {
		return d.hist.Close()
	}
	return nil
}

// Running reports whether the daemon services are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status assembles a runtime snapshot for IPC and CLI consumers.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Pipeline:     d.pipeline.Snapshot(),
		CachePath:    d.cache.Path(),
		CacheEntries: d.cache.Count(),
		LockFilePath: d.lockPath,
		Dependencies: deps.CheckBinaries(deps.For(d.cfg)),
		PID:          os.Getpid(),
	}
	if d.watcher != nil {
		status.WatcherActive = d.watcher.Running()
	}
	if d.hist != nil {
		status.HistoryDBPath = d.hist.Path()
	}
	return status
}

// Check triggers analysis of a single path through the pipeline.
func (d *Daemon) Check(path string) (*verdict.Verdict, error) {
	if !d.running.Load() {
		return nil, errors.New("daemon not running")
	}
	return d.pipeline.Check(path)
}

// Recent returns the most recent history entries, newest first.
func (d *Daemon) Recent(ctx context.Context, limit int) ([]history.Check, error) {
	if d.hist == nil {
		return nil, nil
	}
	return d.hist.Recent(ctx, limit)
}

// StatusCounts aggregates history rows by verdict status.
func (d *Daemon) StatusCounts(ctx context.Context) (map[string]int, error) {
	if d.hist == nil {
		return map[string]int{}, nil
	}
	return d.hist.StatusCounts(ctx)
}

// CacheEntries lists the persisted verdicts.
func (d *Daemon) CacheEntries() []resultcache.Entry {
	return d.cache.List()
}

// ClearCache removes all persisted verdicts.
func (d *Daemon) ClearCache() (int, error) {
	removed := d.cache.Count()
	if err := d.cache.Clear(); err != nil {
		return 0, err
	}
	return removed, nil
}

// RemoveCacheEntry drops the persisted verdict for a single path.
func (d *Daemon) RemoveCacheEntry(path string) error {
	return d.cache.Remove(path)
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// LockPath returns the daemon lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
