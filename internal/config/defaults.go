package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Backend names accepted by detector.analyzer_backend.
const (
	BackendMetadata = "metadata"
	BackendSpectrum = "spectrum"
)

const (
	defaultMusicRootDir       = "~/Music/downloads"
	defaultLogDir             = "~/.local/share/spectrocheck/logs"
	defaultTolerancePercent   = 10
	defaultAnalyzerBackend    = BackendMetadata
	defaultMaxFileSizeMB      = 0
	defaultCooldownSeconds    = 2
	defaultToolTimeoutSeconds = 30
	defaultSpectrumBinary     = "true-bitrate"
	defaultFFprobeBinary      = "ffprobe"
	defaultWatcherPollSeconds = 10
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultCacheFileName      = "results.json"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MusicRootDir: defaultMusicRootDir,
			LogDir:       defaultLogDir,
			CacheFile:    defaultCacheFile(),
		},
		Detector: Detector{
			TolerancePercent:   defaultTolerancePercent,
			AutoCheck:          true,
			AnalyzerBackend:    defaultAnalyzerBackend,
			MaxFileSizeMB:      defaultMaxFileSizeMB,
			EnableLogging:      true,
			CooldownSeconds:    defaultCooldownSeconds,
			ToolTimeoutSeconds: defaultToolTimeoutSeconds,
			SpectrumBinary:     defaultSpectrumBinary,
			FFprobeBinary:      defaultFFprobeBinary,
		},
		Watcher: Watcher{
			Enabled:             true,
			PollIntervalSeconds: defaultWatcherPollSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Failures:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCacheFile() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "spectrocheck", defaultCacheFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/spectrocheck/" + defaultCacheFileName
	}
	return filepath.Join(home, ".cache", "spectrocheck", defaultCacheFileName)
}
