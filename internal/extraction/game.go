package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"

	"switchlib/internal/archiveset"
	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
	"switchlib/internal/staging"
)

// Failures collects the per-set errors of one game. It is the only
// multi-error callers split for display.
type Failures []error

func (f Failures) Error() string {
	parts := make([]string, 0, len(f))
	for _, err := range f {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

func (f Failures) Unwrap() []error { return f }

// GameResult is the outcome of the two-stage extraction of one game.
type GameResult struct {
	// GameFiles are the game files found anywhere under the work directory.
	GameFiles []string
	// Failures holds one *ArchiveError per set that could not be extracted.
	Failures []error
	// NestedSets counts archive sets found inside the first pass output.
	NestedSets int
	// Skipped counts unreadable entries met while rescanning.
	Skipped int
}

// ExtractGame runs every top-level set into workDir, accumulating per-set
// failures, then rescans workDir for archives and runs exactly one more pass
// into the nested directory. The nested output is not rescanned for further
// archives. Only cancellation and work directory errors are returned.
func (e *Extractor) ExtractGame(ctx context.Context, sets []archiveset.Set, workDir string, passwords []string, report progress.Func) (GameResult, error) {
	var result GameResult
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, fmt.Errorf("create work directory: %w", err)
	}

	failures, err := e.runPass(ctx, sets, workDir, passwords, report, progress.StageExtract, progress.BandExtractOuter)
	result.Failures = append(result.Failures, failures...)
	if err != nil {
		return result, err
	}

	scan := fileutil.WalkExcluding(workDir, staging.NestedDirName)
	result.Skipped += scan.Skipped
	var inner []string
	for _, file := range scan.Files {
		if archiveset.IsArchive(file) {
			inner = append(inner, file)
		}
	}
	nested := archiveset.Group(inner)
	result.NestedSets = len(nested)
	if len(nested) > 0 {
		logging.WithContext(ctx, e.logger).Info("nested archives found",
			logging.Int("count", len(nested)),
			logging.String(logging.FieldEventType, "nested_archives"),
		)
		nestedRoot := staging.NestedDir(workDir)
		if err := os.MkdirAll(nestedRoot, 0o755); err != nil {
			return result, fmt.Errorf("create nested directory: %w", err)
		}
		failures, err := e.runPass(ctx, nested, nestedRoot, passwords, report, progress.StageNested, progress.BandExtractNested)
		result.Failures = append(result.Failures, failures...)
		if err != nil {
			return result, err
		}
	}

	all := fileutil.Walk(workDir)
	result.Skipped += all.Skipped
	for _, file := range all.Files {
		if archiveset.IsGameFile(file) {
			result.GameFiles = append(result.GameFiles, file)
		}
	}
	return result, nil
}

func (e *Extractor) runPass(ctx context.Context, sets []archiveset.Set, root string, passwords []string, report progress.Func, stage progress.Stage, band progress.Band) ([]error, error) {
	var failures []error
	for i, set := range sets {
		if err := services.CheckCancelled(ctx, string(stage)); err != nil {
			return failures, err
		}
		name := set.Name()
		percent := band.Step(i, len(sets))
		report.Emit(progress.Event{
			Stage:   stage,
			Message: fmt.Sprintf("%s (%d/%d)", name, i+1, len(sets)),
			Percent: percent,
		})

		onAttempt := func(attempt, total int) {
			if attempt == 1 {
				return
			}
			report.Emit(progress.Event{
				Stage:   stage,
				Message: fmt.Sprintf("%s (password %d/%d)", name, attempt, total),
				Percent: percent,
			})
		}
		dir := attemptDir(root, i)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return failures, fmt.Errorf("create archive directory: %w", err)
		}
		err := e.extract(ctx, set, dir, passwords, onAttempt)
		if err == nil {
			continue
		}
		if services.IsCancelled(err) {
			return failures, err
		}
		failures = append(failures, err)
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "archive extraction failed", "extraction_failed",
			logging.String("archive", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the archive password list and that every part is present"),
			logging.String(logging.FieldImpact, "files from this archive are missing"),
		)
	}
	report.Emit(progress.Event{Stage: stage, Message: "done", Percent: band.Hi})
	return failures, nil
}
