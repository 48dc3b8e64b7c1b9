package history

import "time"

// Check is one recorded analysis run.
type Check struct {
	ID             int64
	TaskID         string
	Path           string
	Size           int64
	ModTime        int64
	Backend        string
	Status         string
	Reason         string
	DeclaredKbps   int
	ActualKbps     int
	MaxFrequencyHz int
	ElapsedMS      int64
	CreatedAt      time.Time
}
