package ipc

import "time"

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports the daemon process id.
type PingResponse struct {
	PID int `json:"pid"`
}

// StartRequest resumes daemon processing.
type StartRequest struct{}

// StartResponse indicates whether processing was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest pauses daemon processing.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// PipelineStats mirrors the pipeline counters for IPC callers.
type PipelineStats struct {
	QueueDepth int    `json:"queue_depth"`
	Processed  int    `json:"processed"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Errored    int    `json:"errored"`
	CacheHits  int    `json:"cache_hits"`
	LastFile   string `json:"last_file"`
	LastStatus string `json:"last_status"`
}

// DependencyStatus describes availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	WatcherActive bool               `json:"watcher_active"`
	Pipeline      PipelineStats      `json:"pipeline"`
	CachePath     string             `json:"cache_path"`
	CacheEntries  int                `json:"cache_entries"`
	HistoryDBPath string             `json:"history_db_path"`
	LockPath      string             `json:"lock_path"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	PID           int                `json:"pid"`
}

// CheckRequest asks the daemon to analyze a file.
type CheckRequest struct {
	Path string `json:"path"`
}

// VerdictPayload is the wire form of an analysis verdict.
type VerdictPayload struct {
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	DeclaredKbps   int    `json:"declared_kbps"`
	ActualKbps     int    `json:"actual_kbps"`
	MaxFrequencyHz int    `json:"max_frequency_hz"`
}

// CheckResponse reports whether the file was queued or resolved at once.
type CheckResponse struct {
	Queued  bool            `json:"queued"`
	Verdict *VerdictPayload `json:"verdict,omitempty"`
}

// RecentRequest fetches recent history entries.
type RecentRequest struct {
	Limit int `json:"limit"`
}

// CheckRecord is one persisted analysis run.
type CheckRecord struct {
	ID             int64     `json:"id"`
	Path           string    `json:"path"`
	Backend        string    `json:"backend"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason"`
	DeclaredKbps   int       `json:"declared_kbps"`
	ActualKbps     int       `json:"actual_kbps"`
	MaxFrequencyHz int       `json:"max_frequency_hz"`
	ElapsedMS      int64     `json:"elapsed_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecentResponse contains history entries, newest first.
type RecentResponse struct {
	Checks []CheckRecord `json:"checks"`
}

// StatsRequest fetches aggregate history counts.
type StatsRequest struct{}

// StatsResponse reports history rows grouped by status.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// CacheListRequest lists persisted verdicts.
type CacheListRequest struct{}

// CacheEntry is one persisted verdict.
type CacheEntry struct {
	Path           string    `json:"path"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason"`
	DeclaredKbps   int       `json:"declared_kbps"`
	ActualKbps     int       `json:"actual_kbps"`
	MaxFrequencyHz int       `json:"max_frequency_hz"`
	CheckedAt      time.Time `json:"checked_at"`
}

// CacheListResponse contains the persisted verdicts.
type CacheListResponse struct {
	Entries []CacheEntry `json:"entries"`
}

// CacheRemoveRequest drops the persisted verdict for one path.
type CacheRemoveRequest struct {
	Path string `json:"path"`
}

// CacheRemoveResponse echoes the removed path.
type CacheRemoveResponse struct {
	Path string `json:"path"`
}

// CacheClearRequest removes all persisted verdicts.
type CacheClearRequest struct{}

// CacheClearResponse reports the number of removed entries.
type CacheClearResponse struct {
	Removed int `json:"removed"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
