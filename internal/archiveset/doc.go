// Package archiveset groups raw archive files into logical sets.
//
// A multi-part RAR sequence ("name.partN.rar") collapses to one set whose
// primary is the lowest part; a zip is always its own set; a plain rar is
// keyed by its name without extension. Grouping is purely name based and
// does not touch the filesystem.
package archiveset
