package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// probeResult is the decoded ffprobe JSON payload.
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type probeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// probe executes ffprobe against the path and decodes the JSON response.
// The raw output is returned alongside for diagnostics.
func (a *Adapter) probe(ctx context.Context, path string) (probeResult, string, error) {
	binary := a.cfg.Detector.FFprobeBinary
	output, err := a.run(ctx, binary,
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return probeResult{}, string(output), err
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return probeResult{}, string(output), &ToolError{Tool: binary, Err: fmt.Errorf("parse output: %w", err), Output: string(output)}
	}
	return result, string(output), nil
}

// AudioStreamBitrateKbps returns the first audio stream's bitrate in kbps,
// or 0 when ffprobe did not report one.
func (r probeResult) AudioStreamBitrateKbps() int {
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		if bps := parseBitrate(stream.BitRate); bps > 0 {
			return bps / 1000
		}
	}
	return 0
}

// FormatBitrateKbps returns the container-level bitrate in kbps, or 0.
func (r probeResult) FormatBitrateKbps() int {
	if bps := parseBitrate(r.Format.BitRate); bps > 0 {
		return bps / 1000
	}
	return 0
}

func parseBitrate(value string) int {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed <= 0 {
		return 0
	}
	return int(parsed)
}

// DeclaredBitrate resolves the bitrate a file claims about itself: the
// first audio stream's metadata bitrate, falling back to the container
// bitrate, falling back to patterns in the file name. Returns 0 when
// nothing usable is found.
func (a *Adapter) DeclaredBitrate(ctx context.Context, path string) (int, error) {
	if err := a.sizeGuard(path); err != nil {
		return 0, err
	}
	binary := a.cfg.Detector.FFprobeBinary
	if _, err := a.runner.LookPath(binary); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrToolNotFound, binary)
	}

	result, _, err := a.probe(ctx, path)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			// A broken probe still allows the filename fallback.
			if kbps := bitrateFromFilename(path); kbps > 0 {
				return kbps, nil
			}
		}
		return 0, err
	}

	if kbps := result.AudioStreamBitrateKbps(); kbps > 0 {
		return kbps, nil
	}
	if kbps := result.FormatBitrateKbps(); kbps > 0 {
		return kbps, nil
	}
	return bitrateFromFilename(path), nil
}

var filenameBitratePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{2,3})\s*kbps`),
	regexp.MustCompile(`\[(\d{2,3})\]`),
	regexp.MustCompile(`_(\d{2,3})\b`),
}

// bitrateFromFilename scans the file name for a declared bitrate, e.g.
// "Track (320 kbps).mp3" or "Track [192].mp3".
func bitrateFromFilename(path string) int {
	name := filepath.Base(path)
	for _, pattern := range filenameBitratePatterns {
		match := pattern.FindStringSubmatch(name)
		if len(match) < 2 {
			continue
		}
		kbps, err := strconv.Atoi(match[1])
		if err == nil && kbps > 0 {
			return kbps
		}
	}
	return 0
}
