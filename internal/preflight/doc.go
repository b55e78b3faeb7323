// Package preflight provides the readiness checks behind "switchlib doctor":
// the extraction tool, the configured folders, the device mount for device
// outputs, and the local title database.
//
// Checks never modify anything. Each Result is independent, so one failing
// check does not hide the others.
package preflight
