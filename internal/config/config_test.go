package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("exists should be false for a missing file")
	}
	if resolved != missing {
		t.Errorf("resolved path = %q, want %q", resolved, missing)
	}
	if cfg.Detector.TolerancePercent != defaultTolerancePercent {
		t.Errorf("tolerance = %d, want default %d", cfg.Detector.TolerancePercent, defaultTolerancePercent)
	}
	if cfg.Detector.AnalyzerBackend != BackendMetadata {
		t.Errorf("backend = %q, want %q", cfg.Detector.AnalyzerBackend, BackendMetadata)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
music_root_directory = "` + dir + `/music"
log_dir = "` + dir + `/logs"
cache_file = "` + dir + `/cache/results.json"

[detector]
tolerance_percent = 25
analyzer_backend = "SPECTRUM"
max_file_size_mb = 150
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists should be true")
	}
	if cfg.Detector.TolerancePercent != 25 {
		t.Errorf("tolerance = %d, want 25", cfg.Detector.TolerancePercent)
	}
	if cfg.Detector.AnalyzerBackend != BackendSpectrum {
		t.Errorf("backend not lowercased: %q", cfg.Detector.AnalyzerBackend)
	}
	if cfg.MaxFileSizeBytes() != 150*1024*1024 {
		t.Errorf("MaxFileSizeBytes = %d", cfg.MaxFileSizeBytes())
	}
}

func TestValidateRejectsToleranceOutOfRange(t *testing.T) {
	for _, tolerance := range []int{-1, 51, 100} {
		cfg := Default()
		if err := cfg.normalize(); err != nil {
			t.Fatalf("normalize: %v", err)
		}
		cfg.Detector.TolerancePercent = tolerance
		if err := cfg.Validate(); err == nil {
			t.Errorf("tolerance %d should be rejected", tolerance)
		}
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Detector.AnalyzerBackend = "sox"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("unknown backend should be rejected")
	}
	if !strings.Contains(err.Error(), "analyzer_backend") {
		t.Errorf("error should name the key: %v", err)
	}
}

func TestValidateRejectsNegativeSizeGuard(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Detector.MaxFileSizeMB = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative max_file_size_mb should be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("sample config file should exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	expanded, err := ExpandPath("~/music")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if expanded != filepath.Join(home, "music") {
		t.Errorf("ExpandPath(~/music) = %q", expanded)
	}
}
