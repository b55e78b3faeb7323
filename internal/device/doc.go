// Package device publishes consolidated files to removable device targets.
//
// A device target is an output path of the form "mtp://<device>/<folder>".
// The pipeline consolidates into a local staging directory first and then
// hands each file to a Sink. MountSink serves targets that the desktop has
// mounted as a directory (for example a gvfs MTP mount).
package device
