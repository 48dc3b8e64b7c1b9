package verdict

import (
	"testing"

	"spectrocheck/internal/analyzer"
)

func measurement(declared, actual int) analyzer.Measurement {
	return analyzer.Measurement{DeclaredKbps: declared, ActualKbps: actual, Format: "mp3"}
}

func TestDecideBitrateDelta(t *testing.T) {
	cases := []struct {
		name      string
		declared  int
		actual    int
		tolerance int
		want      Status
	}{
		{"within tolerance", 320, 300, 10, StatusPassed},
		{"clear upscale", 320, 128, 10, StatusFailed},
		{"exactly at bound passes", 320, 288, 10, StatusPassed}, // difference == tolerance == 32
		{"one past bound fails", 320, 287, 10, StatusFailed},    // difference == tolerance + 1
		{"actual above declared passes", 192, 320, 10, StatusPassed},
		{"zero tolerance exact match", 320, 320, 0, StatusPassed},
		{"zero tolerance any shortfall fails", 320, 319, 0, StatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Decide(measurement(tc.declared, tc.actual), tc.tolerance)
			if v.Status != tc.want {
				t.Errorf("Decide(declared=%d actual=%d tol=%d%%) = %s (%s), want %s",
					tc.declared, tc.actual, tc.tolerance, v.Status, v.Reason, tc.want)
			}
		})
	}
}

func TestDecideMissingDeclaredBitrateIsError(t *testing.T) {
	for _, declared := range []int{0, -1} {
		v := Decide(measurement(declared, 320), 10)
		if v.Status != StatusError {
			t.Errorf("declared=%d should be Error, got %s", declared, v.Status)
		}
	}
}

func TestDecideMissingActualIsError(t *testing.T) {
	m := analyzer.Measurement{DeclaredKbps: 320, Format: "mp3"}
	v := Decide(m, 10)
	if v.Status != StatusError {
		t.Errorf("no actual, no frequency should be Error, got %s", v.Status)
	}
}

func TestDecideSeemsGoodTakesPrecedence(t *testing.T) {
	// Cutoff alone would imply 128 kbps and fail, but the backend's own
	// judgment is authoritative.
	m := analyzer.Measurement{
		DeclaredKbps:   320,
		MaxFrequencyHz: 15000,
		SeemsGood:      true,
		Format:         "mp3",
	}
	v := Decide(m, 10)
	if v.Status != StatusPassed {
		t.Errorf("seems-good should pass directly, got %s (%s)", v.Status, v.Reason)
	}
}

func TestDecideFrequencyCutoff(t *testing.T) {
	cases := []struct {
		hz       int
		declared int
		want     Status
	}{
		{15000, 320, StatusFailed}, // implies 128
		{20500, 320, StatusPassed}, // full bandwidth
		{19000, 256, StatusPassed}, // implies exactly 256
		{11000, 64, StatusPassed},
		{12500, 320, StatusFailed}, // implies 96
	}
	for _, tc := range cases {
		m := analyzer.Measurement{DeclaredKbps: tc.declared, MaxFrequencyHz: tc.hz, Format: "mp3"}
		v := Decide(m, 10)
		if v.Status != tc.want {
			t.Errorf("hz=%d declared=%d: got %s (%s), want %s", tc.hz, tc.declared, v.Status, v.Reason, tc.want)
		}
	}
}

func TestBitrateForFrequencyTable(t *testing.T) {
	cases := map[int]int{
		9000:  64,
		11000: 64,
		11001: 96,
		13000: 96,
		15000: 128,
		17000: 192,
		19000: 256,
		19001: 320,
		22050: 320,
	}
	for hz, want := range cases {
		if got := BitrateForFrequency(hz); got != want {
			t.Errorf("BitrateForFrequency(%d) = %d, want %d", hz, got, want)
		}
	}
}

// Increasing the measured bitrate while holding everything else fixed must
// never turn a pass into a failure.
func TestDecideMonotonic(t *testing.T) {
	for _, tolerance := range []int{0, 10, 25, 50} {
		passed := false
		for actual := 1; actual <= 400; actual++ {
			v := Decide(measurement(320, actual), tolerance)
			if v.Status == StatusPassed {
				passed = true
			} else if passed {
				t.Fatalf("tolerance %d%%: actual=%d flipped back to %s after a pass",
					tolerance, actual, v.Status)
			}
		}
		if !passed {
			t.Errorf("tolerance %d%%: nothing passed", tolerance)
		}
	}
}

func TestStatusGlyphs(t *testing.T) {
	cases := map[Status]string{
		StatusPassed:  "✓",
		StatusFailed:  "✗",
		StatusSkipped: "-",
		StatusError:   "!",
	}
	for status, want := range cases {
		if got := status.Glyph(); got != want {
			t.Errorf("Glyph(%s) = %q, want %q", status, got, want)
		}
	}
}
