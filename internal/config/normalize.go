package config

import "strings"

// normalize expands path fields and trims string values so validation and
// downstream consumers see canonical data.
func (c *Config) normalize() error {
	var err error

	if c.Paths.MusicRootDir, err = expandPath(strings.TrimSpace(c.Paths.MusicRootDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	if c.Paths.CacheFile, err = expandPath(strings.TrimSpace(c.Paths.CacheFile)); err != nil {
		return err
	}

	c.Detector.AnalyzerBackend = strings.ToLower(strings.TrimSpace(c.Detector.AnalyzerBackend))
	if c.Detector.AnalyzerBackend == "" {
		c.Detector.AnalyzerBackend = defaultAnalyzerBackend
	}
	c.Detector.SpectrumBinary = strings.TrimSpace(c.Detector.SpectrumBinary)
	if c.Detector.SpectrumBinary == "" {
		c.Detector.SpectrumBinary = defaultSpectrumBinary
	}
	c.Detector.FFprobeBinary = strings.TrimSpace(c.Detector.FFprobeBinary)
	if c.Detector.FFprobeBinary == "" {
		c.Detector.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Detector.ToolTimeoutSeconds <= 0 {
		c.Detector.ToolTimeoutSeconds = defaultToolTimeoutSeconds
	}
	if c.Watcher.PollIntervalSeconds <= 0 {
		c.Watcher.PollIntervalSeconds = defaultWatcherPollSeconds
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
