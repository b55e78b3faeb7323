package extraction

import (
	"strings"

	"switchlib/internal/archiveset"
)

// BuildPasswordList splits the user list on ',', ';' and '|', trims and
// dedupes it in order, then appends each default not already present.
func BuildPasswordList(user string, defaults []string) []string {
	var list []string
	seen := make(map[string]struct{})
	add := func(pw string) {
		pw = strings.TrimSpace(pw)
		if pw == "" {
			return
		}
		if _, dup := seen[pw]; dup {
			return
		}
		seen[pw] = struct{}{}
		list = append(list, pw)
	}
	for _, pw := range strings.FieldsFunc(user, isDelimiter) {
		add(pw)
	}
	for _, pw := range defaults {
		add(pw)
	}
	return list
}

func isDelimiter(r rune) bool {
	return r == ',' || r == ';' || r == '|'
}

// Candidates returns the passwords to try for set, in order. Zip containers
// are often unencrypted wrappers, so the empty password goes first for them.
func Candidates(set archiveset.Set, passwords []string) []string {
	if !set.IsZIP() {
		return append([]string(nil), passwords...)
	}
	out := make([]string, 0, len(passwords)+1)
	out = append(out, "")
	for _, pw := range passwords {
		if pw != "" {
			out = append(out, pw)
		}
	}
	return out
}
