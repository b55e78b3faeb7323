package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"switchlib/internal/archiveset"
	"switchlib/internal/logging"
	"switchlib/internal/services"
	"switchlib/internal/services/sevenzip"
	"switchlib/internal/staging"
)

// Tool is the extraction capability of the archive tool.
type Tool interface {
	Extract(ctx context.Context, archive, outputDir, password string) error
}

// ErrNoGameFiles reports a game whose archives produced no game files.
var ErrNoGameFiles = errors.New("no game files found (nsp/nsz/xci/xcz)")

// ArchiveError reports that one archive set could not be extracted.
type ArchiveError struct {
	Archive string
	Err     error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Archive, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// AttemptFunc observes each password attempt; attempt is one based.
type AttemptFunc func(attempt, total int)

// Extractor drives the password retry protocol against a Tool.
type Extractor struct {
	tool   Tool
	logger *slog.Logger
}

// New builds an extractor around tool.
func New(tool Tool, logger *slog.Logger) *Extractor {
	return &Extractor{tool: tool, logger: logging.NewComponentLogger(logger, "extraction")}
}

// Extract unpacks set into outputDir trying each candidate password once.
// outputDir is emptied after every failed attempt. Launch failures and missing
// volumes stop immediately; other failures move on to the next password.
// When every password fails the last error is returned as an *ArchiveError.
func (e *Extractor) Extract(ctx context.Context, set archiveset.Set, outputDir string, passwords []string) error {
	return e.extract(ctx, set, outputDir, passwords, nil)
}

func (e *Extractor) extract(ctx context.Context, set archiveset.Set, outputDir string, passwords []string, onAttempt AttemptFunc) error {
	candidates := Candidates(set, passwords)
	if len(candidates) == 0 {
		candidates = []string{""}
	}
	name := set.Name()
	logger := logging.WithContext(ctx, e.logger).With(logging.String("archive", name))

	var lastErr error
	for i, pw := range candidates {
		if err := services.CheckCancelled(ctx, "extract"); err != nil {
			return err
		}
		if onAttempt != nil {
			onAttempt(i+1, len(candidates))
		}

		err := e.tool.Extract(ctx, set.Primary(), outputDir, pw)
		if err == nil {
			logger.Debug("archive extracted",
				logging.Int("attempt", i+1),
				logging.Int("attempts_total", len(candidates)),
			)
			return nil
		}
		if services.IsCancelled(err) {
			return err
		}
		lastErr = err
		logger.Debug("extraction attempt failed",
			logging.Int("attempt", i+1),
			logging.Int("attempts_total", len(candidates)),
			logging.Error(err),
		)
		if clearErr := staging.EmptyDir(outputDir); clearErr != nil {
			return &ArchiveError{Archive: name, Err: fmt.Errorf("clear partial output: %w", clearErr)}
		}

		var toolErr *sevenzip.Error
		if errors.As(err, &toolErr) && !toolErr.Retryable() {
			return &ArchiveError{Archive: name, Err: err}
		}
	}
	return &ArchiveError{Archive: name, Err: lastErr}
}

// attemptDir is where the index-th set of a pass is unpacked. Each set gets
// its own directory so clearing a failed attempt never touches the output of
// sets that already succeeded.
func attemptDir(root string, index int) string {
	return filepath.Join(root, fmt.Sprintf("%03d", index+1))
}
