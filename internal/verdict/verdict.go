package verdict

import "spectrocheck/internal/analyzer"

// Status classifies the outcome of one file check.
type Status string

const (
	StatusPassed  Status = "Passed"
	StatusFailed  Status = "Failed"
	StatusSkipped Status = "Skipped"
	StatusError   Status = "Error"
)

// Glyph returns the one-character console marker for the status.
func (s Status) Glyph() string {
	switch s {
	case StatusPassed:
		return "✓"
	case StatusFailed:
		return "✗"
	case StatusSkipped:
		return "-"
	default:
		return "!"
	}
}

// Verdict is the terminal judgment for a checked file. Immutable once
// produced; written exactly once to cache, history, and logs.
type Verdict struct {
	Status      Status
	Reason      string
	Measurement analyzer.Measurement
}

// Passed builds a passing verdict.
func Passed(reason string, m analyzer.Measurement) Verdict {
	return Verdict{Status: StatusPassed, Reason: reason, Measurement: m}
}

// Failed builds a failing verdict.
func Failed(reason string, m analyzer.Measurement) Verdict {
	return Verdict{Status: StatusFailed, Reason: reason, Measurement: m}
}

// Skipped builds a skipped verdict.
func Skipped(reason string, m analyzer.Measurement) Verdict {
	return Verdict{Status: StatusSkipped, Reason: reason, Measurement: m}
}

// Errored builds an error verdict.
func Errored(reason string, m analyzer.Measurement) Verdict {
	return Verdict{Status: StatusError, Reason: reason, Measurement: m}
}
