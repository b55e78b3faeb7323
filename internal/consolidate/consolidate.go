package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
)

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithMovable limits renaming to sources for which movable returns true.
// Other sources are always copied and left in place.
func WithMovable(movable func(path string) bool) Option {
	return func(c *Consolidator) {
		if movable != nil {
			c.movable = movable
		}
	}
}

// Consolidator places files into a destination directory.
type Consolidator struct {
	logger  *slog.Logger
	movable func(path string) bool
	// sameVolume is swapped in tests to force the copy path.
	sameVolume func(a, b string) (bool, error)
}

// New returns a consolidator logging through logger.
func New(logger *slog.Logger, opts ...Option) *Consolidator {
	c := &Consolidator{
		logger:     logging.NewComponentLogger(logger, "consolidate"),
		movable:    func(string) bool { return true },
		sameVolume: fileutil.SameVolume,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consolidate places each file into destDir under its base name and returns
// the destination paths in input order. A destination that already holds a
// file of the same name and size is kept and the source left untouched.
// Otherwise the file is renamed when source and destination share a volume,
// falling back to a streamed copy. Percentages reported cover 0-100 of the
// whole batch.
func (c *Consolidator) Consolidate(ctx context.Context, files []string, destDir string, report progress.Func) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	logger := logging.WithContext(ctx, c.logger)

	placed := make([]string, 0, len(files))
	total := len(files)
	for i, src := range files {
		if err := services.CheckCancelled(ctx, "consolidate"); err != nil {
			return placed, err
		}
		name := filepath.Base(src)
		dst := filepath.Join(destDir, name)

		skip, err := isDuplicate(src, dst)
		if err != nil {
			return placed, err
		}
		if skip {
			report.Emit(progress.Event{
				Stage:   progress.StageSkipping,
				Message: name,
				Percent: (i + 1) * 100 / total,
			})
			logger.Info("skipping duplicate file",
				logging.String("file", name),
				logging.String(logging.FieldEventType, "duplicate_skipped"),
			)
			placed = append(placed, dst)
			continue
		}

		if c.tryRename(src, dst) {
			report.Emit(progress.Event{
				Stage:   progress.StageConsolidate,
				Message: name,
				Percent: (i + 1) * 100 / total,
			})
			logger.Debug("file moved", logging.String("file", name))
			placed = append(placed, dst)
			continue
		}

		report.Emit(progress.Event{
			Stage:   progress.StageConsolidate,
			Message: name,
			Percent: i * 100 / total,
		})
		lastPercent := -1
		onCopy := func(written, size int64) {
			filePercent := 100
			if size > 0 {
				filePercent = int(written * 100 / size)
			}
			overall := (i*100 + filePercent) / total
			if overall == lastPercent {
				return
			}
			lastPercent = overall
			report.Emit(progress.Event{
				Stage:   progress.StageConsolidate,
				Message: fmt.Sprintf("%s (%d%%)", name, filePercent),
				Percent: overall,
			})
		}
		if err := fileutil.CopyFileContext(ctx, src, dst, onCopy); err != nil {
			if ctx.Err() != nil {
				return placed, services.Wrap(services.ErrCancelled, "consolidate", "copy", name, err)
			}
			return placed, fmt.Errorf("copy %s: %w", name, err)
		}
		logger.Debug("file copied", logging.String("file", name))
		placed = append(placed, dst)
	}
	return placed, nil
}

func (c *Consolidator) tryRename(src, dst string) bool {
	if !c.movable(src) {
		return false
	}
	same, err := c.sameVolume(src, filepath.Dir(dst))
	if err != nil || !same {
		return false
	}
	return os.Rename(src, dst) == nil
}

func isDuplicate(src, dst string) (bool, error) {
	dstSize, exists, err := fileutil.SizeOf(dst)
	if err != nil {
		return false, fmt.Errorf("inspect destination: %w", err)
	}
	if !exists {
		return false, nil
	}
	srcSize, _, err := fileutil.SizeOf(src)
	if err != nil {
		return false, fmt.Errorf("inspect source: %w", err)
	}
	return srcSize == dstSize, nil
}
