// Package analyzer adapts the external analysis backends behind a single
// entry point.
//
// Two backends are supported: the metadata backend reads the encoded stream
// bitrate via ffprobe, and the spectrum backend runs a spectrum analysis
// tool whose textual output reports either a measured bitrate or a maximum
// frequency plus a qualitative judgment. Both shapes are normalized into a
// Measurement. The adapter also enforces the size guard and the per-backend
// format filter before any process is spawned, and resolves the declared
// bitrate a file advertises about itself.
package analyzer
