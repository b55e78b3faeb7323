// Package fileutil holds file copy helpers shared by consolidation and device
// publishing.
package fileutil
