package sevenzip

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"switchlib/internal/services"
)

// Category classifies an extraction failure.
type Category string

const (
	CategoryWrongPassword Category = "wrong_password"
	CategoryCRC           Category = "crc_failed"
	CategoryData          Category = "data_error"
	CategoryHeaders       Category = "headers_error"
	CategoryEncrypted     Category = "cannot_open_encrypted"
	CategoryCannotOpen    Category = "cannot_open"
	CategoryMissingVolume Category = "missing_volume"
	CategoryExitCode      Category = "exit_code"
	CategoryLaunch        Category = "launch_failed"
)

const maxDetailLength = 120

// outputMarkers is checked in order; the first marker found in the tool output
// decides the category.
var outputMarkers = []struct {
	text     string
	category Category
}{
	{"Wrong password", CategoryWrongPassword},
	{"CRC Failed", CategoryCRC},
	{"Data Error", CategoryData},
	{"Headers Error", CategoryHeaders},
	{"Cannot open encrypted archive", CategoryEncrypted},
	{"Cannot open", CategoryCannotOpen},
	{"No more files", CategoryMissingVolume},
	{"Missing volume", CategoryMissingVolume},
}

// Error describes a failed tool invocation.
type Error struct {
	Category Category
	ExitCode int
	// Detail is the first ERROR line of the output for generic failures.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Category {
	case CategoryWrongPassword:
		return "wrong password"
	case CategoryCRC:
		return "CRC check failed (wrong password or corrupt file)"
	case CategoryData:
		return "data error (wrong password or corrupt file)"
	case CategoryHeaders:
		return "headers error (wrong password or corrupt file)"
	case CategoryEncrypted:
		return "cannot open encrypted archive (wrong password)"
	case CategoryCannotOpen:
		return "cannot open file"
	case CategoryMissingVolume:
		return "archive volumes incomplete"
	case CategoryLaunch:
		if e.Err != nil {
			return fmt.Sprintf("cannot launch 7z: %v", e.Err)
		}
		return "cannot launch 7z"
	default:
		msg := fmt.Sprintf("7z exit code %d", e.ExitCode)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match any tool failure with services.ErrExternalTool.
func (e *Error) Is(target error) bool {
	return target == services.ErrExternalTool
}

// Retryable reports whether another password may succeed. Launch failures and
// missing volumes never depend on the password.
func (e *Error) Retryable() bool {
	switch e.Category {
	case CategoryLaunch, CategoryMissingVolume:
		return false
	default:
		return true
	}
}

// Classify maps a failing exit code and the combined tool output to an *Error.
func Classify(exitCode int, output string) *Error {
	for _, marker := range outputMarkers {
		if strings.Contains(output, marker.text) {
			return &Error{Category: marker.category, ExitCode: exitCode}
		}
	}
	return &Error{Category: CategoryExitCode, ExitCode: exitCode, Detail: firstErrorLine(output)}
}

func firstErrorLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= 5 && strings.EqualFold(trimmed[:5], "ERROR") {
			return truncate(trimmed, maxDetailLength)
		}
	}
	return ""
}

func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit])
}
