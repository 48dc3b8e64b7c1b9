// Package notifications delivers detection events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Upscale detections and check errors each have a dedicated method
// so callers emit consistent messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; the pipeline and
// daemon depend only on the Service interface.
package notifications
