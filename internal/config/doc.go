// Package config loads, validates, and normalizes spectrocheck's TOML
// configuration.
//
// Configuration is resolved from an explicit path, then
// ~/.config/spectrocheck/config.toml, then ./spectrocheck.toml, falling back
// to built-in defaults when no file exists. Values are normalized (path
// expansion, trimming, backend name folding) before validation so the rest
// of the system only ever sees canonical data.
package config
