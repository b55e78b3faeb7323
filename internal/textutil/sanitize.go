package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer maps characters illegal in file names on common
// filesystems to underscores.
var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFileName makes name safe to use as a single path element. The
// result is NFC normalized so names typed on different platforms compare
// equal, control characters are dropped, and trailing dots and spaces are
// trimmed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(name))
	return strings.TrimRight(strings.TrimSpace(name), ". ")
}

// EqualFold compares two file names after NFC normalization, ignoring case.
func EqualFold(a, b string) bool {
	return strings.EqualFold(norm.NFC.String(a), norm.NFC.String(b))
}
