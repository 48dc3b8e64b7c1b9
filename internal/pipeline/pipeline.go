// Package pipeline coordinates upscale checks: a serialized task queue, a
// single worker goroutine that drives the analyzer, and the fan-out of each
// verdict to the cache, the history store, the reporter, and notifications.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/config"
	"spectrocheck/internal/fileid"
	"spectrocheck/internal/history"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/notifications"
	"spectrocheck/internal/report"
	"spectrocheck/internal/resultcache"
	"spectrocheck/internal/verdict"
)

// Stats is a snapshot of pipeline counters since Start.
type Stats struct {
	QueueDepth int
	Processed  int
	Passed     int
	Failed     int
	Skipped    int
	Errored    int
	CacheHits  int
	LastFile   string
	LastStatus string
}

// Pipeline owns the check queue and its single worker.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	adapter  *analyzer.Adapter
	cache    *resultcache.Cache
	hist     *history.Store
	reporter *report.Writer
	notifier notifications.Service

	queue    *Queue
	cooldown time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// New wires a pipeline from its collaborators. The history store may be nil
// when persistence of run history is disabled.
func New(cfg *config.Config, adapter *analyzer.Adapter, cache *resultcache.Cache, hist *history.Store, reporter *report.Writer, notifier notifications.Service, logger *slog.Logger) *Pipeline {
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		adapter:  adapter,
		cache:    cache,
		hist:     hist,
		reporter: reporter,
		notifier: notifier,
		queue:    NewQueue(),
		cooldown: time.Duration(cfg.Detector.CooldownSeconds) * time.Second,
	}
}

// SetCooldown overrides the pause between tasks. Used by tests.
func (p *Pipeline) SetCooldown(d time.Duration) {
	p.cooldown = d
}

// Start launches the worker goroutine. It returns an error when the
// pipeline is already running.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("pipeline already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go p.run(runCtx)

	p.logger.Info("pipeline started",
		logging.String(logging.FieldBackend, string(p.adapter.Kind())),
		logging.Int("cooldown_seconds", p.cfg.Detector.CooldownSeconds))
	return nil
}

// Stop closes the queue, abandoning pending tasks, and waits for the task
// currently in flight to finish. Safe to call more than once.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	abandoned := p.queue.Len()
	p.queue.Close()
	p.wg.Wait()
	if cancel != nil {
		cancel()
	}

	p.logger.Info("pipeline stopped", logging.Int("abandoned_tasks", abandoned))
}

// Running reports whether the worker is active.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Snapshot returns current counters for status reporting.
func (p *Pipeline) Snapshot() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.QueueDepth = p.queue.Len()
	return s
}

// Check triggers analysis of a single path. Non-audio files, missing files,
// and cached results resolve immediately without touching the queue. The
// returned verdict is nil when a task was enqueued for background analysis.
func (p *Pipeline) Check(path string) (*verdict.Verdict, error) {
	id, err := fileid.Capture(path)
	if err != nil {
		id = fileid.Identity{Path: path}
		v := verdict.Errored(fmt.Sprintf("Cannot access file: %v", err), analyzer.Measurement{})
		p.publish("", id, path, v, 0, false)
		return &v, nil
	}

	if !fileid.IsAudio(id.Path) {
		v := verdict.Skipped("Not an audio file", analyzer.Measurement{})
		p.finish(Task{Identity: id}, v, 0)
		return &v, nil
	}

	if entry, ok := p.cache.Lookup(id); ok {
		v := verdictFromEntry(entry)
		p.statsMu.Lock()
		p.stats.CacheHits++
		p.statsMu.Unlock()
		p.logger.Debug("cache hit",
			logging.String(logging.FieldFile, id.Base()),
			logging.String(logging.FieldStatus, entry.Status))
		p.reporter.Publish(id, v)
		return &v, nil
	}

	task := NewTask(id, 0, p.adapter.Kind())
	switch p.queue.Enqueue(task) {
	case EnqueueClosed:
		// Shutdown must not be silent: the caller still gets a verdict
		// and a console line, but nothing is cached.
		v := verdict.Errored("Not queued: checker is shutting down", analyzer.Measurement{})
		p.publish(task.ID, id, id.Path, v, 0, false)
		return &v, nil
	case EnqueueDuplicate:
		// The task already queued for this identity reports the result.
		p.logger.Debug("duplicate check dropped", logging.String(logging.FieldFile, id.Base()))
		return nil, nil
	}
	p.logger.Debug("task enqueued",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldFile, id.Base()))
	return nil, nil
}

// CheckNow analyzes a single path synchronously on the caller's goroutine,
// bypassing the queue and worker. One-shot checks use this when no daemon
// is running; the verdict still fans out to cache, history, and reporter.
func (p *Pipeline) CheckNow(ctx context.Context, path string) verdict.Verdict {
	id, err := fileid.Capture(path)
	if err != nil {
		id = fileid.Identity{Path: path}
		v := verdict.Errored(fmt.Sprintf("Cannot access file: %v", err), analyzer.Measurement{})
		p.publish("", id, path, v, 0, false)
		return v
	}

	if !fileid.IsAudio(id.Path) {
		v := verdict.Skipped("Not an audio file", analyzer.Measurement{})
		p.finish(Task{Identity: id}, v, 0)
		return v
	}

	if entry, ok := p.cache.Lookup(id); ok {
		v := verdictFromEntry(entry)
		p.statsMu.Lock()
		p.stats.CacheHits++
		p.statsMu.Unlock()
		p.reporter.Publish(id, v)
		return v
	}

	task := NewTask(id, 0, p.adapter.Kind())
	start := time.Now()
	v := p.process(ctx, task)
	p.finish(task, v, time.Since(start))
	return v
}

func (p *Pipeline) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		task, ok := p.queue.Dequeue()
		if !ok {
			return
		}

		p.safeProcess(ctx, task)
		p.queue.Done(task)

		if p.cooldown > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cooldown):
			}
		}
	}
}

// safeProcess contains panics from a single task so one bad file cannot
// take down the worker.
func (p *Pipeline) safeProcess(ctx context.Context, task Task) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic during check",
				logging.String(logging.FieldTaskID, task.ID),
				logging.String(logging.FieldFile, task.Identity.Base()),
				logging.Any("panic", r))
			v := verdict.Errored(fmt.Sprintf("Internal error: %v", r), analyzer.Measurement{})
			p.finish(task, v, time.Since(start))
		}
	}()

	v := p.process(ctx, task)
	p.finish(task, v, time.Since(start))
}

func (p *Pipeline) process(ctx context.Context, task Task) verdict.Verdict {
	path := task.Identity.Path

	declared := task.DeclaredKbps
	if declared == 0 {
		var err error
		declared, err = p.adapter.DeclaredBitrate(ctx, path)
		if err != nil {
			return verdictFromAnalyzeError(err, analyzer.Measurement{})
		}
	}
	if declared == 0 {
		return verdict.Errored("Could not determine declared bitrate", analyzer.Measurement{})
	}

	measurement, err := p.adapter.Analyze(ctx, path, declared, task.Backend)
	if err != nil {
		return verdictFromAnalyzeError(err, measurement)
	}

	return verdict.Decide(measurement, p.cfg.Detector.TolerancePercent)
}

// verdictFromAnalyzeError maps analyzer failures onto verdict statuses.
// Guard conditions skip the file; tool problems are genuine errors.
func verdictFromAnalyzeError(err error, m analyzer.Measurement) verdict.Verdict {
	if errors.Is(err, analyzer.ErrOversized) || errors.Is(err, analyzer.ErrUnsupportedFormat) {
		return verdict.Skipped(err.Error(), m)
	}
	return verdict.Errored(err.Error(), m)
}

// finish fans a verdict out to the cache, history, reporter, and notifier.
func (p *Pipeline) finish(task Task, v verdict.Verdict, elapsed time.Duration) {
	id := task.Identity

	if err := p.cache.Store(id, v); err != nil {
		p.logger.Warn("cache write failed",
			logging.String(logging.FieldFile, id.Base()),
			logging.Error(err))
	}

	p.publish(task.ID, id, id.Path, v, elapsed, true)
}

// publish records and reports a verdict. recordHistory is false for
// resolutions that never had a file identity, such as unreadable paths.
func (p *Pipeline) publish(taskID string, id fileid.Identity, path string, v verdict.Verdict, elapsed time.Duration, recordHistory bool) {
	if p.hist != nil && recordHistory {
		check := history.Check{
			TaskID:         taskID,
			Path:           path,
			Size:           id.Size,
			ModTime:        id.ModTime,
			Backend:        string(p.adapter.Kind()),
			Status:         string(v.Status),
			Reason:         v.Reason,
			DeclaredKbps:   v.Measurement.DeclaredKbps,
			ActualKbps:     v.Measurement.ActualKbps,
			MaxFrequencyHz: v.Measurement.MaxFrequencyHz,
			ElapsedMS:      elapsed.Milliseconds(),
		}
		if err := p.hist.Record(context.Background(), check); err != nil {
			p.logger.Warn("history write failed",
				logging.String(logging.FieldFile, id.Base()),
				logging.Error(err))
		}
	}

	p.reporter.Publish(id, v)
	p.notify(id, v)
	p.count(id, v)

	p.logger.Info("check complete",
		logging.String(logging.FieldFile, id.Base()),
		logging.String(logging.FieldStatus, string(v.Status)),
		logging.Duration("elapsed", elapsed))
}

func (p *Pipeline) notify(id fileid.Identity, v verdict.Verdict) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	switch v.Status {
	case verdict.StatusFailed:
		err = p.notifier.NotifyUpscaleDetected(ctx, id.Base(), v.Reason)
	case verdict.StatusError:
		err = p.notifier.NotifyCheckError(ctx, id.Base(), v.Reason)
	default:
		return
	}
	if err != nil {
		p.logger.Warn("notification failed",
			logging.String(logging.FieldFile, id.Base()),
			logging.Error(err))
	}
}

func (p *Pipeline) count(id fileid.Identity, v verdict.Verdict) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.Processed++
	switch v.Status {
	case verdict.StatusPassed:
		p.stats.Passed++
	case verdict.StatusFailed:
		p.stats.Failed++
	case verdict.StatusSkipped:
		p.stats.Skipped++
	case verdict.StatusError:
		p.stats.Errored++
	}
	p.stats.LastFile = id.Base()
	p.stats.LastStatus = string(v.Status)
}

func verdictFromEntry(entry resultcache.Entry) verdict.Verdict {
	return verdict.Verdict{
		Status: verdict.Status(entry.Status),
		Reason: entry.Reason,
		Measurement: analyzer.Measurement{
			DeclaredKbps:   entry.DeclaredKbps,
			ActualKbps:     entry.ActualKbps,
			MaxFrequencyHz: entry.MaxFrequencyHz,
		},
	}
}
