// Package sevenzip mediates access to the 7-Zip compatible CLI used to list
// and extract game archives.
//
// The tool is treated as a black box returning an exit status and text. The
// Runner interface keeps process execution swappable so the failure table
// (wrong password, CRC, data, headers, encrypted, cannot open, missing
// volume, generic exit code, launch failure) is testable without a real
// binary. Cancelling the context kills a running process.
package sevenzip
