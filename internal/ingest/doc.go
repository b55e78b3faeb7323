// Package ingest builds the catalog of games found in the source
// directories and processes selected games into the output directory.
//
// Scan is read-only: it walks the source roots, identifies every candidate
// (subdirectory, loose game file, loose archive set) and merges candidates
// sharing a base title identifier into one Game. Process re-scans, then for
// each selected game extracts its archive sets into a private work
// directory, consolidates the resulting game files, optionally publishes
// them to a device target, and always removes the work directory.
package ingest
