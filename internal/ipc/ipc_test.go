package ipc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spectrocheck/internal/analyzer"
	"spectrocheck/internal/config"
	"spectrocheck/internal/daemon"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/notifications"
	"spectrocheck/internal/pipeline"
	"spectrocheck/internal/report"
	"spectrocheck/internal/resultcache"
	"spectrocheck/internal/testsupport"
	"spectrocheck/internal/verdict"
)

type stubRunner struct{}

func (stubRunner) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

func (stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return []byte(`{"streams":[{"codec_type":"audio","bit_rate":"320000"}],"format":{}}`), nil
}

func newTestServer(t *testing.T) (*Client, *daemon.Daemon, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMetadata))

	logger := logging.NewNop()
	adapter := analyzer.NewWithRunner(cfg, logger, stubRunner{})
	cache := resultcache.New(cfg.Paths.CacheFile, logger)
	reporter := report.NewWriterTo(cfg, logger, &bytes.Buffer{})
	p := pipeline.New(cfg, adapter, cache, nil, reporter, notifications.NewNoop(), logger)

	d, err := daemon.New(cfg, p, nil, nil, cache, notifications.NewNoop(), logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	socket := filepath.Join(cfg.Paths.LogDir, "ipc.sock")
	server, err := NewServer(context.Background(), socket, d, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, d, cfg
}

func TestPingAndStatus(t *testing.T) {
	client, _, cfg := newTestServer(t)

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if ping.PID != os.Getpid() {
		t.Fatalf("PID = %d, want %d", ping.PID, os.Getpid())
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.CachePath != cfg.Paths.CacheFile {
		t.Fatalf("CachePath = %s, want %s", status.CachePath, cfg.Paths.CacheFile)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestCheckRoundTrip(t *testing.T) {
	client, d, cfg := newTestServer(t)

	path := filepath.Join(cfg.Paths.MusicRootDir, "track.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write track: %v", err)
	}

	resp, err := client.Check(path)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !resp.Queued || resp.Verdict != nil {
		t.Fatalf("first check = %+v, want queued", resp)
	}

	deadline := time.Now().Add(5 * time.Second)
	for d.Status(context.Background()).Pipeline.Processed == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp, err = client.Check(path)
	if err != nil {
		t.Fatalf("cached Check: %v", err)
	}
	if resp.Queued || resp.Verdict == nil {
		t.Fatalf("cached check = %+v, want immediate verdict", resp)
	}
	if resp.Verdict.Status != string(verdict.StatusPassed) {
		t.Fatalf("cached status = %s, want Passed", resp.Verdict.Status)
	}
}

func TestCheckRejectsEmptyPath(t *testing.T) {
	client, _, _ := newTestServer(t)

	if _, err := client.Check("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCacheMaintenance(t *testing.T) {
	client, d, cfg := newTestServer(t)

	path := filepath.Join(cfg.Paths.MusicRootDir, "track.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write track: %v", err)
	}
	if _, err := client.Check(path); err != nil {
		t.Fatalf("Check: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for d.Status(context.Background()).Pipeline.Processed == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	list, err := client.CacheList()
	if err != nil {
		t.Fatalf("CacheList: %v", err)
	}
	if len(list.Entries) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(list.Entries))
	}

	if err := client.CacheRemove(path); err != nil {
		t.Fatalf("CacheRemove: %v", err)
	}
	if err := client.CacheRemove(path); err == nil {
		t.Fatal("expected error removing a missing entry")
	}

	// Re-check repopulates the cache for the clear step.
	if _, err := client.Check(path); err != nil {
		t.Fatalf("second Check: %v", err)
	}
	deadline = time.Now().Add(5 * time.Second)
	for d.Status(context.Background()).Pipeline.Processed < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cleared, err := client.CacheClear()
	if err != nil {
		t.Fatalf("CacheClear: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("Removed = %d, want 1", cleared.Removed)
	}
}

func TestStopViaIPC(t *testing.T) {
	client, d, _ := newTestServer(t)

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stopped=true")
	}
	if d.Running() {
		t.Fatal("daemon still running after IPC stop")
	}

	start, err := client.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !start.Started {
		t.Fatalf("restart failed: %s", start.Message)
	}
}

func TestNotificationEndpoint(t *testing.T) {
	client, _, _ := newTestServer(t)

	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if !resp.Sent {
		t.Fatalf("Sent = false, message %q", resp.Message)
	}
}
