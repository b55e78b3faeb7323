// Package resolver maps candidate files, directories, and archive sets to
// title identifiers.
//
// Rules run cheapest first: a bracketed sixteen-digit identifier in the
// candidate's own name, then in any descendant name of a directory, then a
// peek at the archive listing produced by the extraction tool with each
// candidate password. Failure to resolve is not an error; callers skip the
// candidate.
package resolver
