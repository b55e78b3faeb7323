// Package extraction runs the archive tool under the password retry
// protocol and performs the two-stage (outer plus one nested pass)
// extraction of a game's archive sets.
//
// Each attempt uses exactly one password. Failures the tool attributes to
// the password, checksums, or data move on to the next candidate; a tool
// that cannot be launched or a set with missing volumes stops at once.
package extraction
