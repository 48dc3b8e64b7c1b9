package verdict

import (
	"fmt"

	"spectrocheck/internal/analyzer"
)

// frequencyStep maps a spectrum cutoff ceiling to the bitrate a lossy
// encoder at that cutoff typically produced. The table is monotonic;
// anything above the last ceiling is treated as full-bandwidth 320 kbps.
type frequencyStep struct {
	maxHz int
	kbps  int
}

var frequencyTable = []frequencyStep{
	{maxHz: 11000, kbps: 64},
	{maxHz: 13000, kbps: 96},
	{maxHz: 15000, kbps: 128},
	{maxHz: 17000, kbps: 192},
	{maxHz: 19000, kbps: 256},
}

const fullBandwidthKbps = 320

// BitrateForFrequency derives the implied source bitrate from a spectrum
// cutoff frequency.
func BitrateForFrequency(hz int) int {
	for _, step := range frequencyTable {
		if hz <= step.maxHz {
			return step.kbps
		}
	}
	return fullBandwidthKbps
}

// Decide converts a measurement into a verdict. Pure function: no I/O, no
// shared state.
//
// When the backend measured a bitrate directly, the declared-vs-actual delta
// is compared against the tolerance band. When only a frequency cutoff is
// known, the backend's own qualitative judgment wins outright if present;
// otherwise the cutoff is mapped to an implied bitrate and the same delta
// comparison applies. Failure triggers only when the shortfall strictly
// exceeds the tolerance; an at-bound delta passes.
func Decide(m analyzer.Measurement, tolerancePercent int) Verdict {
	if m.DeclaredKbps <= 0 {
		return Errored("Could not determine declared bitrate", m)
	}

	if m.HasActual() {
		return decideDelta(m, m.ActualKbps, tolerancePercent)
	}

	if m.SeemsGood {
		return Passed(fmt.Sprintf("Spectrum matches declared %dkbps", m.DeclaredKbps), m)
	}

	if m.HasFrequency() {
		implied := BitrateForFrequency(m.MaxFrequencyHz)
		v := decideDelta(m, implied, tolerancePercent)
		if v.Status == StatusFailed {
			v.Reason = fmt.Sprintf("Spectrum cutoff %dHz implies ~%dkbps vs declared %dkbps",
				m.MaxFrequencyHz, implied, m.DeclaredKbps)
		}
		return v
	}

	return Errored("Could not determine actual bitrate", m)
}

func decideDelta(m analyzer.Measurement, actualKbps, tolerancePercent int) Verdict {
	tolerance := float64(tolerancePercent) / 100.0 * float64(m.DeclaredKbps)
	difference := m.DeclaredKbps - actualKbps

	if float64(difference) > tolerance {
		return Failed(fmt.Sprintf("Actual %dkbps vs declared %dkbps", actualKbps, m.DeclaredKbps), m)
	}
	return Passed(fmt.Sprintf("%dkbps (within %d%% tolerance)", actualKbps, tolerancePercent), m)
}
