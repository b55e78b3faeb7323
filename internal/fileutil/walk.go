package fileutil

import (
	"io/fs"
	"path/filepath"
)

// WalkResult lists the regular files found under a root. Skipped counts
// entries that could not be read; the walk continues past them.
type WalkResult struct {
	Files   []string
	Skipped int
}

// Walk recursively collects regular files below root in lexical order.
// Unreadable directories are skipped and counted rather than aborting the
// walk, so callers always get whatever part of the tree was readable.
func Walk(root string) WalkResult {
	var result WalkResult
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Skipped++
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			result.Files = append(result.Files, path)
		}
		return nil
	})
	return result
}

// WalkExcluding is Walk but never descends into directories whose base name
// is in exclude.
func WalkExcluding(root string, exclude ...string) WalkResult {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	var result WalkResult
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Skipped++
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, ok := skip[d.Name()]; ok && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			result.Files = append(result.Files, path)
		}
		return nil
	})
	return result
}
