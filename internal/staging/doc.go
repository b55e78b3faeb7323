// Package staging manages the transient work directories used while a game
// is extracted: creation under <output>/.tmp/<id>, guaranteed removal, and
// cleanup of directories abandoned by interrupted runs.
package staging
