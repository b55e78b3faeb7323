//go:build unix

package fileutil

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SameVolume reports whether a and b live on the same filesystem, so a rename
// between them is possible. b may not exist yet; its nearest existing parent
// is used instead.
func SameVolume(a, b string) (bool, error) {
	devA, err := deviceOf(a)
	if err != nil {
		return false, err
	}
	devB, err := deviceOf(nearestExisting(b))
	if err != nil {
		return false, err
	}
	return devA == devB, nil
}

func deviceOf(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return uint64(st.Dev), nil //nolint:unconvert
}

func nearestExisting(path string) string {
	for {
		var st unix.Stat_t
		if err := unix.Stat(path, &st); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
