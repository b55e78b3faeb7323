// Package titleid parses and normalizes the sixteen-digit hexadecimal title
// identifiers embedded in game file names.
//
// Identifiers are stored uppercase. The base form zeroes the last three
// digits so that a title, its updates, and its DLC share one grouping key.
package titleid
