// Package titledb keeps a local SQLite copy of the community title
// database and answers name lookups by title identifier.
//
// Update downloads each configured JSON source, merges the overlay sources
// (localized names) over the primary ones, and rewrites the titles table
// in a single transaction while holding a file lock. Lookups try the exact
// identifier first and then its base form.
package titledb
