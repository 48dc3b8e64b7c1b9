package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"spectrocheck/internal/config"
	"spectrocheck/internal/fileid"
	"spectrocheck/internal/logging"
)

// Kind selects the analysis backend. The set is closed; configuration
// strings are folded into it at load time.
type Kind string

const (
	KindMetadata Kind = config.BackendMetadata
	KindSpectrum Kind = config.BackendSpectrum
)

// ParseKind converts a configuration value into a backend kind.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case config.BackendMetadata:
		return KindMetadata, nil
	case config.BackendSpectrum:
		return KindSpectrum, nil
	default:
		return "", fmt.Errorf("unknown analyzer backend %q", value)
	}
}

// Measurement is the normalized output of one backend run. Exactly one of
// ActualKbps / MaxFrequencyHz is meaningful depending on which backend
// produced it; a reported raw frequency is preserved even when a bitrate
// was derived so callers can display it.
type Measurement struct {
	DeclaredKbps   int
	ActualKbps     int
	MaxFrequencyHz int
	SeemsGood      bool
	Format         string
	RawOutput      string
}

// HasActual reports whether the backend measured a bitrate directly.
func (m Measurement) HasActual() bool { return m.ActualKbps > 0 }

// HasFrequency reports whether the backend reported a frequency cutoff.
func (m Measurement) HasFrequency() bool { return m.MaxFrequencyHz > 0 }

// Sentinel errors surfaced by Analyze. Oversized and unsupported-format
// conditions map to Skipped verdicts; the rest map to Error verdicts.
var (
	ErrToolNotFound      = errors.New("analyzer tool not found")
	ErrUnsupportedFormat = errors.New("format not supported by backend")
	ErrOversized         = errors.New("file exceeds size guard")
)

// ToolError describes a backend process failure (crash, timeout, or
// unusable output) with the captured output for diagnostics.
type ToolError struct {
	Tool   string
	Err    error
	Output string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Adapter invokes analysis backends and normalizes their output. It is
// driven only from the worker goroutine, so a single backend process runs
// at a time.
type Adapter struct {
	cfg    *config.Config
	logger *slog.Logger
	runner CommandRunner
}

// New builds an adapter using the real process runner.
func New(cfg *config.Config, logger *slog.Logger) *Adapter {
	return NewWithRunner(cfg, logger, execRunner{})
}

// NewWithRunner builds an adapter with a custom runner so tests can
// substitute backends without spawning processes.
func NewWithRunner(cfg *config.Config, logger *slog.Logger, runner CommandRunner) *Adapter {
	return &Adapter{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "analyzer"),
		runner: runner,
	}
}

// Kind returns the configured backend.
func (a *Adapter) Kind() Kind {
	kind, err := ParseKind(a.cfg.Detector.AnalyzerBackend)
	if err != nil {
		return KindMetadata
	}
	return kind
}

// Analyze runs the requested backend against the file and returns the
// normalized measurement. The size guard and format filter run before any
// process is spawned.
func (a *Adapter) Analyze(ctx context.Context, path string, declaredKbps int, kind Kind) (Measurement, error) {
	measurement := Measurement{
		DeclaredKbps: declaredKbps,
		Format:       fileid.Format(path),
	}

	if err := a.sizeGuard(path); err != nil {
		return measurement, err
	}

	switch kind {
	case KindSpectrum:
		if measurement.Format == "wma" {
			return measurement, fmt.Errorf("%w: wma", ErrUnsupportedFormat)
		}
		return a.analyzeSpectrum(ctx, path, measurement)
	case KindMetadata:
		return a.analyzeMetadata(ctx, path, measurement)
	default:
		return measurement, fmt.Errorf("unknown analyzer backend %q", kind)
	}
}

// sizeGuard rejects files above max_file_size_mb before any backend process
// is spawned. DeclaredBitrate applies it too, so an oversized file never
// reaches ffprobe either.
func (a *Adapter) sizeGuard(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if limit := a.cfg.MaxFileSizeBytes(); limit > 0 && info.Size() > limit {
		return fmt.Errorf("%w: %d MB over limit of %d MB",
			ErrOversized, info.Size()/(1024*1024), a.cfg.Detector.MaxFileSizeMB)
	}
	return nil
}

func (a *Adapter) analyzeMetadata(ctx context.Context, path string, measurement Measurement) (Measurement, error) {
	binary := a.cfg.Detector.FFprobeBinary
	if _, err := a.runner.LookPath(binary); err != nil {
		return measurement, fmt.Errorf("%w: %s", ErrToolNotFound, binary)
	}

	result, raw, err := a.probe(ctx, path)
	measurement.RawOutput = raw
	if err != nil {
		return measurement, err
	}

	measurement.ActualKbps = result.AudioStreamBitrateKbps()
	a.logger.Debug("metadata analysis complete",
		logging.String(logging.FieldFile, path),
		logging.Int("actual_kbps", measurement.ActualKbps))
	return measurement, nil
}

func (a *Adapter) analyzeSpectrum(ctx context.Context, path string, measurement Measurement) (Measurement, error) {
	binary := a.cfg.Detector.SpectrumBinary
	if _, err := a.runner.LookPath(binary); err != nil {
		return measurement, fmt.Errorf("%w: %s", ErrToolNotFound, binary)
	}

	output, err := a.run(ctx, binary, path)
	measurement.RawOutput = string(output)
	if err != nil {
		return measurement, err
	}

	parsed := parseSpectrumOutput(string(output))
	measurement.ActualKbps = parsed.kbps
	measurement.MaxFrequencyHz = parsed.frequencyHz
	measurement.SeemsGood = parsed.seemsGood

	if !measurement.HasActual() && !measurement.HasFrequency() && !measurement.SeemsGood {
		return measurement, &ToolError{
			Tool:   binary,
			Err:    errors.New("no bitrate or frequency in output"),
			Output: string(output),
		}
	}

	a.logger.Debug("spectrum analysis complete",
		logging.String(logging.FieldFile, path),
		logging.Int("actual_kbps", measurement.ActualKbps),
		logging.Int("max_frequency_hz", measurement.MaxFrequencyHz),
		logging.Bool("seems_good", measurement.SeemsGood))
	return measurement, nil
}

// run invokes a backend under the configured timeout and converts process
// failures into ToolError values.
func (a *Adapter) run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	timeout := time.Duration(a.cfg.Detector.ToolTimeoutSeconds) * time.Second
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := a.runner.Run(runCtx, binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return output, &ToolError{Tool: binary, Err: fmt.Errorf("timed out after %s", timeout), Output: string(output)}
		}
		return output, &ToolError{Tool: binary, Err: err, Output: string(output)}
	}
	return output, nil
}
