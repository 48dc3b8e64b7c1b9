package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
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
	"spectrocheck/internal/testsupport"
)

// stubRunner answers every probe with a healthy 320 kbps audio stream.
type stubRunner struct{}

func (stubRunner) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

func (stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return []byte(`{"streams":[{"codec_type":"audio","bit_rate":"320000"}],"format":{}}`), nil
}

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	hist       *history.Store
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMetadata))

	configPath := filepath.Join(homeDir, ".config", "spectrocheck", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	logger := logging.NewNop()
	hist := testsupport.MustOpenHistory(t, cfg)
	cache := resultcache.New(cfg.Paths.CacheFile, logger)
	notifier := notifications.NewNoop()
	reporter := report.NewWriterTo(cfg, logger, io.Discard)
	adapter := analyzer.NewWithRunner(cfg, logger, stubRunner{})
	p := pipeline.New(cfg, adapter, cache, hist, reporter, notifier, logger)

	d, err := daemon.New(cfg, p, nil, hist, cache, notifier, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		hist:       hist,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nmusic_root_directory = %q\nlog_dir = %q\ncache_file = %q\n\n[detector]\nanalyzer_backend = %q\ncooldown_seconds = 0\nenable_logging = false\n\n[watcher]\nenabled = false\n",
		cfg.Paths.MusicRootDir,
		cfg.Paths.LogDir,
		cfg.Paths.CacheFile,
		cfg.Detector.AnalyzerBackend,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeAudioFile(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.MusicRootDir, name)
	if err := os.WriteFile(path, []byte("audio payload"), 0o644); err != nil {
		t.Fatalf("write audio file: %v", err)
	}
	return path
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
