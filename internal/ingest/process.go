package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"switchlib/internal/consolidate"
	"switchlib/internal/device"
	"switchlib/internal/extraction"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
	"switchlib/internal/staging"
	"switchlib/internal/titleid"
)

// Process scans the sources and processes the games whose base identifiers
// are in ids, in the order given. Identifiers not found by the scan are
// reported as an ErrNotFound error before anything is touched.
func (p *Pipeline) Process(ctx context.Context, ids []titleid.ID, report progress.Func) (ProcessResult, error) {
	scan, err := p.Scan(ctx, nil)
	if err != nil {
		return ProcessResult{}, err
	}
	games := make([]Game, 0, len(ids))
	var missing []string
	seen := make(map[titleid.ID]struct{}, len(ids))
	for _, id := range ids {
		base := id.Base()
		if _, dup := seen[base]; dup {
			continue
		}
		seen[base] = struct{}{}
		game, ok := scan.Find(base)
		if !ok {
			missing = append(missing, base.String())
			continue
		}
		games = append(games, game)
	}
	if len(missing) > 0 {
		return ProcessResult{}, services.Wrap(services.ErrNotFound, "ingest", "select",
			"titles not found in sources: "+strings.Join(missing, ", "), nil)
	}
	return p.ProcessGames(ctx, games, report)
}

// ProcessGames processes already scanned games sequentially. Per-game
// failures are recorded in the result; only cancellation and setup errors
// are returned. On cancellation the games processed so far are kept.
func (p *Pipeline) ProcessGames(ctx context.Context, games []Game, report progress.Func) (ProcessResult, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	isDevice := p.cfg.OutputIsDevice()
	destDir := p.cfg.Paths.OutputDir
	if isDevice {
		destDir = p.cfg.Paths.StagingDir
		if p.sink == nil {
			return ProcessResult{}, services.Wrap(services.ErrConfiguration, "ingest", "device", "no device sink configured", nil)
		}
	}
	result := ProcessResult{RunID: runID, OutputDir: destDir, Device: isDevice}

	cleanup := staging.CleanStale(ctx, staging.Root(destDir), staging.DefaultMaxAge, logger)
	if len(cleanup.Removed) > 0 {
		logger.Info("removed stale work directories", logging.Int("count", len(cleanup.Removed)))
	}

	logger.Info("ingest started",
		logging.Int("games", len(games)),
		logging.String("output_dir", destDir),
		logging.Bool("device", isDevice),
		logging.String(logging.FieldEventType, "ingest_start"),
	)
	for _, game := range games {
		if err := services.CheckCancelled(ctx, "ingest"); err != nil {
			return result, err
		}
		gameResult := p.processGame(ctx, game, destDir, report)
		result.Games = append(result.Games, gameResult)
		if services.IsCancelled(gameResult.Err) {
			return result, gameResult.Err
		}
	}
	success, warning, failed := result.Counts()
	logger.Info("ingest finished",
		logging.Int("success", success),
		logging.Int("warning", warning),
		logging.Int("failed", failed),
		logging.String(logging.FieldEventType, "ingest_complete"),
	)
	return result, nil
}

func (p *Pipeline) processGame(ctx context.Context, game Game, destDir string, report progress.Func) GameResult {
	ctx = services.WithTitleID(ctx, game.TitleID.String())
	logger := logging.WithContext(ctx, p.logger)
	report = progress.Tagged(report, game.TitleID.String())
	result := GameResult{TitleID: game.TitleID, Name: game.Name}

	fail := func(err error) GameResult {
		result.Status = StatusFailed
		result.Err = err
		report.Emit(progress.Event{Stage: progress.StageFailed, Message: err.Error(), Percent: 100})
		logging.ErrorWithContext(logger, "game failed", "game_failed",
			logging.String("name", game.Name),
			logging.Error(err),
		)
		return result
	}

	files := append([]string(nil), game.GameFiles...)
	var failures []error
	workDir := ""
	if len(game.ArchiveSets) > 0 {
		dir, err := staging.Prepare(destDir, game.TitleID.String())
		if err != nil {
			return fail(err)
		}
		workDir = dir
		defer staging.Remove(workDir)

		extracted, err := p.extractor.ExtractGame(ctx, game.ArchiveSets, workDir, p.passwords, report)
		failures = extracted.Failures
		if err != nil {
			return fail(err)
		}
		files = append(files, extracted.GameFiles...)
	}

	if len(files) == 0 {
		if len(failures) > 0 {
			return fail(extraction.Failures(failures))
		}
		return fail(extraction.ErrNoGameFiles)
	}

	band := progress.BandConsolidate
	if p.cfg.OutputIsDevice() {
		band = progress.BandConsolidateStage
	}
	movable := func(path string) bool {
		return workDir != "" && strings.HasPrefix(path, workDir+string(filepath.Separator))
	}
	placed, err := consolidate.New(p.logger, consolidate.WithMovable(movable)).
		Consolidate(ctx, files, destDir, progress.Scoped(report, band))
	result.Files = placed
	if err != nil {
		return fail(err)
	}

	if p.cfg.OutputIsDevice() {
		published, err := device.Publish(ctx, p.sink, placed, p.cfg.Paths.OutputDir, progress.Scoped(report, progress.BandDevicePublish), p.logger)
		result.Published = append(published.Copied, published.Skipped...)
		if err != nil {
			return fail(fmt.Errorf("publish to device: %w", err))
		}
	}

	result.Failures = failures
	result.Status = StatusSuccess
	if len(failures) > 0 {
		result.Status = StatusWarning
		logging.WarnWithContext(logger, "game placed with archive failures", "game_partial",
			logging.String("name", game.Name),
			logging.Int("failed_archives", len(failures)),
			logging.Error(extraction.Failures(failures)),
			logging.String(logging.FieldImpact, "some files of this game may be missing"),
		)
	}
	report.Emit(progress.Event{Stage: progress.StageDone, Message: game.Name, Percent: 100})
	logger.Info("game processed",
		logging.String("name", game.Name),
		logging.Int("files", len(placed)),
		logging.String("status", string(result.Status)),
		logging.String(logging.FieldEventType, "game_complete"),
	)
	return result
}
