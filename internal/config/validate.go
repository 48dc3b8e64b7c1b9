package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Invalid values are rejected
// here so they never reach the decision engine.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.MusicRootDir == "" {
		return errors.New("paths.music_root_directory must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.CacheFile == "" {
		return errors.New("paths.cache_file must be set")
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.TolerancePercent < 0 || c.Detector.TolerancePercent > 50 {
		return fmt.Errorf("detector.tolerance_percent must be between 0 and 50, got %d", c.Detector.TolerancePercent)
	}
	switch c.Detector.AnalyzerBackend {
	case BackendMetadata, BackendSpectrum:
	default:
		return fmt.Errorf("detector.analyzer_backend must be %q or %q, got %q",
			BackendMetadata, BackendSpectrum, c.Detector.AnalyzerBackend)
	}
	if c.Detector.MaxFileSizeMB < 0 {
		return errors.New("detector.max_file_size_mb must not be negative")
	}
	if c.Detector.CooldownSeconds < 0 {
		return errors.New("detector.cooldown_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateWatcher() error {
	if c.Watcher.PollIntervalSeconds <= 0 {
		return errors.New("watcher.poll_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
