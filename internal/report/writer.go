package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"spectrocheck/internal/config"
	"spectrocheck/internal/fileid"
	"spectrocheck/internal/logging"
	"spectrocheck/internal/tags"
	"spectrocheck/internal/verdict"
)

// Writer surfaces verdicts to the console and, when enabled, to the per-file
// and per-album report logs next to the music. Every checked file produces
// exactly one console line and at most one log line; silence is never an
// outcome.
type Writer struct {
	cfg     *config.Config
	logger  *slog.Logger
	console io.Writer
}

// NewWriter builds a report writer targeting stdout.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return NewWriterTo(cfg, logger, os.Stdout)
}

// NewWriterTo builds a report writer with an explicit console sink for
// tests.
func NewWriterTo(cfg *config.Config, logger *slog.Logger, console io.Writer) *Writer {
	return &Writer{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "report"),
		console: console,
	}
}

// Publish writes the verdict's console line and report log line.
func (w *Writer) Publish(id fileid.Identity, v verdict.Verdict) {
	line := ConsoleLine(id, v)
	fmt.Fprintln(w.console, line)

	if !w.cfg.Detector.EnableLogging {
		return
	}
	if err := w.appendLogLine(id, v); err != nil {
		w.logger.Warn("failed to write report log",
			logging.String(logging.FieldEventType, "report_write_failed"),
			logging.String(logging.FieldFile, id.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "verdict recorded in cache but not in the report log"))
	}
}

// ConsoleLine formats the single console line for a verdict:
//
//	✓ Upscale Check: [Passed] track.mp3 - 300kbps (within 10% tolerance)
func ConsoleLine(id fileid.Identity, v verdict.Verdict) string {
	return fmt.Sprintf("%s Upscale Check: [%s] %s - %s",
		v.Status.Glyph(), v.Status, id.Base(), v.Reason)
}

func (w *Writer) appendLogLine(id fileid.Identity, v verdict.Verdict) error {
	logPath := ResolveLogPath(id.Path, w.cfg.Paths.MusicRootDir)

	track := tags.Read(id.Path)
	label := track.Label()
	if label == "" {
		label = id.Base()
	}

	var line strings.Builder
	line.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	line.WriteString(" [")
	line.WriteString(string(v.Status))
	line.WriteString("] ")
	line.WriteString(label)
	line.WriteString(" - ")
	line.WriteString(v.Reason)
	if v.Measurement.MaxFrequencyHz > 0 {
		fmt.Fprintf(&line, " (max frequency %d Hz)", v.Measurement.MaxFrequencyHz)
	}
	line.WriteByte('\n')

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(line.String())
	return err
}
