package titleid

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Length is the number of hex digits in a title identifier.
const Length = 16

var (
	bracketedPattern = regexp.MustCompile(`\[([0-9A-Fa-f]{16})\]`)
	barePattern      = regexp.MustCompile(`([0-9A-Fa-f]{16})`)
)

// ID is a normalized uppercase title identifier.
type ID string

// Parse normalizes value into an ID. It accepts exactly sixteen hex digits in
// either case.
func Parse(value string) (ID, bool) {
	value = strings.TrimSpace(value)
	if len(value) != Length {
		return "", false
	}
	for _, r := range value {
		if !isHex(r) {
			return "", false
		}
	}
	return ID(strings.ToUpper(value)), true
}

// Base zeroes the trailing three digits so updates and DLC collapse onto the
// title they belong to.
func (id ID) Base() ID {
	if len(id) < Length {
		return id
	}
	return id[:Length-3] + "000"
}

// IsBase reports whether the identifier already is in base form.
func (id ID) IsBase() bool {
	return id != "" && id == id.Base()
}

func (id ID) String() string { return string(id) }

// FromName extracts the first bracketed identifier from a file or folder name.
func FromName(name string) (ID, bool) {
	match := bracketedPattern.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	return ID(strings.ToUpper(match[1])), true
}

// FromPath is FromName applied to the last path element.
func FromPath(path string) (ID, bool) {
	return FromName(filepath.Base(path))
}

// FromBareRun extracts any run of sixteen hex digits, bracketed or not.
func FromBareRun(text string) (ID, bool) {
	match := barePattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return ID(strings.ToUpper(match[1])), true
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
