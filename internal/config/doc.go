// Package config loads, normalizes, and validates switchlib configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SWITCHLIB_PASSWORDS and SWITCHLIB_7Z. The Config type centralizes every knob
// the CLI needs so source folders, the output library, and the extraction tool
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
