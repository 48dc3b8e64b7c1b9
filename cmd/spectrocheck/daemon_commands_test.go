package main

import (
	"testing"
)

func TestDaemonStartAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start again: %v", err)
	}
	requireContains(t, out, "Daemon already running")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "Pipeline")
	requireContains(t, out, "Running")
	requireContains(t, out, "Processed")
}

func TestDaemonStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	// Point at a socket nothing listens on; status falls back to local checks.
	out, _, err := runCLI(t, []string{"status"}, env.socketPath+".offline", env.configPath)
	if err != nil {
		t.Fatalf("status offline: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "ffprobe")
	requireContains(t, out, "Pipeline idle")
}
