package ingest

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"switchlib/internal/archiveset"
	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
	"switchlib/internal/staging"
	"switchlib/internal/titleid"
)

// ScanResult is the catalog produced by Scan.
type ScanResult struct {
	Games []Game `json:"games"`
	// Unresolved lists candidates no identifier could be found for.
	Unresolved []string `json:"unresolved,omitempty"`
	// Skipped counts unreadable directories and entries.
	Skipped int `json:"skipped"`
}

// Find returns the game with the given base identifier.
func (r ScanResult) Find(id titleid.ID) (Game, bool) {
	base := id.Base()
	for _, game := range r.Games {
		if game.TitleID == base {
			return game, true
		}
	}
	return Game{}, false
}

type catalogBuilder struct {
	games map[titleid.ID]*Game
	order []titleid.ID
}

// Scan walks every configured source directory. Missing or unreadable
// roots are skipped. Games are returned in the order first discovered.
func (p *Pipeline) Scan(ctx context.Context, report progress.Func) (ScanResult, error) {
	var result ScanResult
	builder := &catalogBuilder{games: make(map[titleid.ID]*Game)}
	logger := logging.WithContext(ctx, p.logger)

	roots := p.cfg.Paths.SourceDirs
	for i, root := range roots {
		if err := services.CheckCancelled(ctx, "scan"); err != nil {
			return result, err
		}
		report.Emit(progress.Event{
			Stage:   progress.StageScan,
			Message: root,
			Percent: progress.BandFull.Step(i, len(roots)),
		})
		entries, err := os.ReadDir(root)
		if err != nil {
			result.Skipped++
			logging.WarnWithContext(logger, "source directory unreadable", "source_unreadable",
				logging.String("path", root),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.source_dirs in the config"),
				logging.String(logging.FieldImpact, "games in this directory are not listed"),
			)
			continue
		}
		if err := p.scanRoot(ctx, root, entries, builder, &result); err != nil {
			return result, err
		}
	}

	for _, id := range builder.order {
		game := builder.games[id]
		p.describe(ctx, game)
		result.Games = append(result.Games, *game)
	}
	report.Emit(progress.Event{Stage: progress.StageScan, Message: "done", Percent: 100})
	logger.Info("scan complete",
		logging.Int("games", len(result.Games)),
		logging.Int("unresolved", len(result.Unresolved)),
		logging.Int("skipped", result.Skipped),
		logging.String(logging.FieldEventType, "scan_complete"),
	)
	return result, nil
}

func (p *Pipeline) scanRoot(ctx context.Context, root string, entries []os.DirEntry, builder *catalogBuilder, result *ScanResult) error {
	var rootGames, rootArchives []string
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		switch {
		case entry.IsDir():
			if entry.Name() == staging.WorkDirName {
				continue
			}
			if err := services.CheckCancelled(ctx, "scan"); err != nil {
				return err
			}
			p.scanDirectory(ctx, path, builder, result)
		case archiveset.IsGameFile(entry.Name()):
			rootGames = append(rootGames, path)
		case archiveset.IsArchive(entry.Name()):
			rootArchives = append(rootArchives, path)
		}
	}

	for _, file := range rootGames {
		id, ok := titleid.FromName(filepath.Base(file))
		if !ok {
			result.Unresolved = append(result.Unresolved, file)
			continue
		}
		builder.add(id, nil, []string{file}, filepath.Base(file), root)
	}

	for _, archive := range rootArchives {
		if archiveset.IsSecondaryPart(archive) {
			continue
		}
		if err := services.CheckCancelled(ctx, "scan"); err != nil {
			return err
		}
		members := archiveset.Siblings(archive, rootArchives)
		sets := archiveset.Group(members)
		if len(sets) == 0 {
			continue
		}
		id, ok := p.resolver.ResolveArchive(ctx, sets[0], p.passwords)
		if !ok {
			result.Unresolved = append(result.Unresolved, archive)
			continue
		}
		builder.add(id, members, nil, filepath.Base(archive), root)
	}
	return nil
}

func (p *Pipeline) scanDirectory(ctx context.Context, dir string, builder *catalogBuilder, result *ScanResult) {
	walk := fileutil.Walk(dir)
	result.Skipped += walk.Skipped

	var archives, games []string
	for _, file := range walk.Files {
		switch {
		case archiveset.IsArchive(file):
			archives = append(archives, file)
		case archiveset.IsGameFile(file):
			games = append(games, file)
		}
	}
	if len(archives) == 0 && len(games) == 0 {
		return
	}
	id, ok := p.resolver.ResolveWalked(ctx, dir, walk.Files, p.passwords)
	if !ok {
		result.Unresolved = append(result.Unresolved, dir)
		return
	}
	builder.add(id, archives, games, filepath.Base(dir), dir)
}

// add merges a discovery into the game for the base of id.
func (b *catalogBuilder) add(id titleid.ID, archives, games []string, folderName, sourceDir string) {
	base := id.Base()
	game, ok := b.games[base]
	if !ok {
		game = &Game{TitleID: base, FolderName: folderName}
		b.games[base] = game
		b.order = append(b.order, base)
	}
	for _, set := range archiveset.Group(archives) {
		if !slices.ContainsFunc(game.ArchiveSets, func(s archiveset.Set) bool { return s.Key == set.Key }) {
			game.ArchiveSets = append(game.ArchiveSets, set)
		}
	}
	game.AllArchives = appendUnique(game.AllArchives, archives...)
	game.GameFiles = appendUnique(game.GameFiles, games...)
	game.SourceDirs = appendUnique(game.SourceDirs, sourceDir)
}

// describe fills metadata and size once the game is complete.
func (p *Pipeline) describe(ctx context.Context, game *Game) {
	game.Name = PlaceholderName(game.TitleID)
	if p.catalog != nil {
		info, ok, err := p.catalog.Lookup(ctx, game.TitleID)
		switch {
		case err != nil:
			p.logger.Debug("title lookup failed",
				logging.String(logging.FieldTitleID, game.TitleID.String()),
				logging.Error(err),
			)
		case ok && info.Name != "":
			game.Name = info.Name
			game.IconURL = info.IconURL
			game.Publisher = info.Publisher
		}
	}
	game.Size = 0
	for _, file := range slices.Concat(game.AllArchives, game.GameFiles) {
		if size, ok, err := fileutil.SizeOf(file); err == nil && ok {
			game.Size += size
		}
	}
}

func appendUnique(list []string, values ...string) []string {
	for _, value := range values {
		if !slices.Contains(list, value) {
			list = append(list, value)
		}
	}
	return list
}
