package deps

import "spectrocheck/internal/config"

// For builds the requirement list for the configured analyzer backend.
// ffprobe is always needed for declared-bitrate resolution; the spectrum
// tool is only mandatory when the spectrum backend is selected.
func For(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "ffprobe",
			Command:     cfg.Detector.FFprobeBinary,
			Description: "Reads declared bitrate and stream metadata",
		},
		{
			Name:        "Spectrum analyzer",
			Command:     cfg.Detector.SpectrumBinary,
			Description: "Measures effective bitrate from the frequency spectrum",
			Optional:    cfg.Detector.AnalyzerBackend != config.BackendSpectrum,
		},
	}
}
