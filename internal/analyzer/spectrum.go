package analyzer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// spectrumReading holds the raw values extracted from the spectrum tool's
// textual output before normalization.
type spectrumReading struct {
	kbps        int
	frequencyHz int
	seemsGood   bool
}

var (
	kbpsPattern      = regexp.MustCompile(`(?i)(\d+)\s*kbps`)
	kHzPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kHz`)
	maxFreqPattern   = regexp.MustCompile(`(?i)max(?:imum)? frequency (?:is )?about (\d+)\s*Hz`)
	seemsGoodPattern = regexp.MustCompile(`(?i)seems (?:to be )?(?:good|fine)`)
)

// parseSpectrumOutput extracts whatever the tool reported. A measured
// bitrate wins when present; otherwise the frequency cutoff is kept so the
// decision engine can derive a bitrate from it. The qualitative judgment is
// carried regardless.
func parseSpectrumOutput(output string) spectrumReading {
	reading := spectrumReading{
		seemsGood: seemsGoodPattern.MatchString(output),
	}

	for _, line := range strings.Split(output, "\n") {
		if reading.kbps == 0 {
			if match := kbpsPattern.FindStringSubmatch(line); len(match) == 2 {
				if kbps, err := strconv.Atoi(match[1]); err == nil && kbps > 0 {
					reading.kbps = kbps
				}
			}
		}
		if reading.frequencyHz == 0 {
			if match := maxFreqPattern.FindStringSubmatch(line); len(match) == 2 {
				if hz, err := strconv.Atoi(match[1]); err == nil && hz > 0 {
					reading.frequencyHz = hz
					continue
				}
			}
			if match := kHzPattern.FindStringSubmatch(line); len(match) == 2 {
				if khz, err := strconv.ParseFloat(match[1], 64); err == nil && khz > 0 {
					reading.frequencyHz = int(math.Round(khz * 1000))
				}
			}
		}
	}

	return reading
}
