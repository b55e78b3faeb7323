package staging

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// WorkDirName is the hidden directory inside the output root holding
	// per-game extraction trees.
	WorkDirName = ".tmp"
	// NestedDirName holds the output of the second extraction pass.
	NestedDirName = "__nested__"
)

// Root returns the work directory root under an output directory.
func Root(outputDir string) string {
	return filepath.Join(outputDir, WorkDirName)
}

// GameDir returns the work directory for one title under outputDir.
func GameDir(outputDir, titleID string) string {
	return filepath.Join(Root(outputDir), titleID)
}

// NestedDir returns the nested pass directory inside a game work directory.
func NestedDir(workDir string) string {
	return filepath.Join(workDir, NestedDirName)
}

// Prepare creates an empty work directory for titleID, discarding anything
// a previous run left there.
func Prepare(outputDir, titleID string) (string, error) {
	dir := GameDir(outputDir, titleID)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("reset work directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	return dir, nil
}

// Remove deletes a work directory and, when it is empty afterwards, the
// work root holding it. Errors are ignored.
func Remove(workDir string) {
	_ = os.RemoveAll(workDir)
	_ = os.Remove(filepath.Dir(workDir))
}

// EmptyDir removes every entry inside dir, leaving dir itself in place.
func EmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
