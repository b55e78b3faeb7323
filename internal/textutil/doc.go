// Package textutil provides file name sanitizing helpers used when building
// canonical game folder names.
package textutil
