// Package consolidate moves extracted game files into one flat destination
// directory, skipping files already present with the same name and size.
package consolidate
