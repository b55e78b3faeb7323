//go:build !unix

package fileutil

import (
	"path/filepath"
	"strings"
)

// SameVolume compares volume names; callers still fall back to copying when
// a rename fails.
func SameVolume(a, b string) (bool, error) {
	return strings.EqualFold(filepath.VolumeName(a), filepath.VolumeName(b)), nil
}
