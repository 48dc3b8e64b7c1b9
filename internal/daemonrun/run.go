// Package daemonrun assembles and runs the spectrocheck daemon process:
// logger setup, pid file, service wiring, IPC socket, and signal handling.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/config"
	"spectrocheck/internal/daemon"
	"spectrocheck/internal/history"
	"spectrocheck/internal/ipc"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/notifications"
	"spectrocheck/internal/pipeline"
	"spectrocheck/internal/report"
	"spectrocheck/internal/resultcache"
	"spectrocheck/internal/watcher"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	SocketPath  string
}

// Run starts the spectrocheck daemon runtime loop and blocks until a
// termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("spectrocheck-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update spectrocheck.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "spectrocheck.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	hist, err := history.Open(cfg)
	if err != nil {
		logger.Warn("history store unavailable, continuing without it",
			logging.Error(err),
			logging.String(logging.FieldImpact, "check history will not be recorded"))
		hist = nil
	}

	cache := resultcache.New(cfg.Paths.CacheFile, logger)
	notifier := notifications.NewService(cfg)
	reporter := report.NewWriter(cfg, logger)
	adapter := analyzer.New(cfg, logger)
	p := pipeline.New(cfg, adapter, cache, hist, reporter, notifier, logger)

	var w *watcher.Watcher
	if cfg.Watcher.Enabled && cfg.Detector.AutoCheck {
		w = watcher.New(cfg, func(path string) {
			if _, err := p.Check(path); err != nil {
				logger.Warn("watcher check failed",
					logging.String(logging.FieldFile, path),
					logging.Error(err))
			}
		}, logger)
	}

	d, err := daemon.New(cfg, p, w, hist, cache, notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = SocketPath(cfg)
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and lock file access"),
			logging.String(logging.FieldImpact, "files will not be analyzed"))
	}

	<-signalCtx.Done()
	logger.Info("spectrocheck daemon shutting down")
	return nil
}

// SocketPath returns the IPC socket location for a configuration.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "spectrocheck.sock")
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "spectrocheck.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffprobe := cfg.Detector.FFprobeBinary
	spectrum := cfg.Detector.SpectrumBinary
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("analyzer_backend", cfg.Detector.AnalyzerBackend),
		logging.Bool("ffprobe_available", binaryAvailable(ffprobe)),
		logging.String("ffprobe_binary", ffprobe),
		logging.Bool("spectrum_available", binaryAvailable(spectrum)),
		logging.String("spectrum_binary", spectrum),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("watcher_enabled", cfg.Watcher.Enabled))
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
