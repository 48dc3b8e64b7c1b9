package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for remediation hints.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldFile is the standardized structured logging key for the audio file being processed.
	FieldFile = "file"
	// FieldBackend is the standardized structured logging key for analyzer backend names.
	FieldBackend = "backend"
	// FieldStatus is the standardized structured logging key for verdict statuses.
	FieldStatus = "status"
	// FieldTaskID is the standardized structured logging key for pipeline task identifiers.
	FieldTaskID = "task_id"
)
