package report

import (
	"path/filepath"
	"strings"
)

const logSuffix = " - spectro_check.log"

// ResolveLogPath maps a checked file to the report log that records its
// verdict. Files directly inside the music root get a per-file report named
// after the track; files in a subdirectory (an album folder) share one
// report per folder, named after the folder.
//
// A misconfigured root only degrades the grouping; it never affects
// verdicts.
func ResolveLogPath(filePath, musicRoot string) string {
	parent := filepath.Dir(filePath)

	if sameDir(parent, musicRoot) {
		base := filepath.Base(filePath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return filepath.Join(parent, stem+logSuffix)
	}

	return filepath.Join(parent, filepath.Base(parent)+logSuffix)
}

func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
