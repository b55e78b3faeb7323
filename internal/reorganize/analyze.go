package reorganize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"switchlib/internal/archiveset"
	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/resolver"
	"switchlib/internal/services"
	"switchlib/internal/textutil"
	"switchlib/internal/titledb"
	"switchlib/internal/titleid"
)

// junkNames are incidental OS files removed from the library root.
var junkNames = []string{".tmp", ".DS_Store", "Thumbs.db", "Desktop.lnk", "desktop.ini"}

// IsJunk reports whether name is on the junk list.
func IsJunk(name string) bool {
	return slices.Contains(junkNames, name)
}

// Catalog provides title metadata for folder names.
type Catalog interface {
	Lookup(ctx context.Context, id titleid.ID) (titledb.Info, bool, error)
}

// Reorganizer analyzes and executes library plans.
type Reorganizer struct {
	resolver  *resolver.Resolver
	catalog   Catalog
	passwords []string
	logger    *slog.Logger
}

// New builds a reorganizer. lister may be nil, which disables peeking into
// archives; catalog may be nil, which names every game by placeholder.
func New(lister resolver.Lister, catalog Catalog, passwords []string, logger *slog.Logger) *Reorganizer {
	return &Reorganizer{
		resolver:  resolver.New(lister, logger),
		catalog:   catalog,
		passwords: append([]string(nil), passwords...),
		logger:    logging.NewComponentLogger(logger, "reorganize"),
	}
}

// CanonicalFolderName is "<sanitized name> [<base id>]".
func CanonicalFolderName(name string, id titleid.ID) string {
	return fmt.Sprintf("%s [%s]", textutil.SanitizeFileName(name), id.Base())
}

// analysis carries the per-pass state: the folder chosen for each base
// identifier so later files converge on it.
type analysis struct {
	folder  string
	plan    Plan
	folders map[titleid.ID]string
}

// Analyze inspects folder's immediate children and returns the actions that
// would tidy it. Nothing is modified.
func (r *Reorganizer) Analyze(ctx context.Context, folder string) (Plan, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return Plan{}, services.Wrap(services.ErrNotFound, "reorganize", "read folder", folder, err)
	}
	a := &analysis{
		folder:  folder,
		plan:    Plan{Folder: folder},
		folders: make(map[titleid.ID]string),
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := services.CheckCancelled(ctx, "reorganize"); err != nil {
			return Plan{}, err
		}
		r.analyzeDirectory(ctx, a, entry.Name())
	}
	if err := r.analyzeFiles(ctx, a, entries); err != nil {
		return Plan{}, err
	}

	logging.WithContext(ctx, r.logger).Info("reorganize plan ready",
		logging.String("folder", folder),
		logging.Int("actions", len(a.plan.Actions)),
		logging.Int("unresolved", len(a.plan.Unresolved)),
		logging.String(logging.FieldEventType, "reorganize_plan"),
	)
	return a.plan, nil
}

func (r *Reorganizer) analyzeDirectory(ctx context.Context, a *analysis, name string) {
	dir := filepath.Join(a.folder, name)
	if IsJunk(name) {
		a.plan.Actions = append(a.plan.Actions, junkAction(dir, true))
		return
	}
	if id, ok := titleid.FromName(name); ok {
		a.folders[id.Base()] = name
		return
	}

	nested := isDoubleNested(dir, name)
	scanDir := dir
	if nested {
		scanDir = filepath.Join(dir, name)
	}
	walk := fileutil.Walk(scanDir)
	if walk.Skipped > 0 {
		r.logger.Debug("directory walk skipped unreadable entries",
			logging.String("path", scanDir),
			logging.Int("skipped", walk.Skipped),
		)
	}
	id, ok := r.resolver.ResolveWalked(ctx, scanDir, walk.Files, r.passwords)
	if !ok {
		a.plan.Unresolved = append(a.plan.Unresolved, dir)
		return
	}

	base := id.Base()
	gameName := r.gameName(ctx, base)
	target := CanonicalFolderName(gameName, base)
	a.folders[base] = target

	targetPath := filepath.Join(a.folder, target)
	if target == name || exists(targetPath) {
		return
	}
	if nested {
		a.plan.Actions = append(a.plan.Actions, flattenAction(dir, scanDir, targetPath, base, gameName))
		return
	}
	a.plan.Actions = append(a.plan.Actions, renameAction(dir, targetPath, base, gameName))
}

func (r *Reorganizer) analyzeFiles(ctx context.Context, a *analysis, entries []os.DirEntry) error {
	var archives []string
	for _, entry := range entries {
		if !entry.IsDir() && archiveset.IsArchive(entry.Name()) {
			archives = append(archives, filepath.Join(a.folder, entry.Name()))
		}
	}

	loose := make(map[titleid.ID][]string)
	var looseOrder []titleid.ID
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(a.folder, name)
		switch {
		case IsJunk(name):
			a.plan.Actions = append(a.plan.Actions, junkAction(path, false))
		case archiveset.IsGameFile(name):
			id, ok := titleid.FromName(name)
			if !ok {
				continue
			}
			base := id.Base()
			if _, seen := loose[base]; !seen {
				looseOrder = append(looseOrder, base)
			}
			loose[base] = append(loose[base], path)
		case archiveset.IsArchive(name):
			if archiveset.IsSecondaryPart(name) {
				continue
			}
			if err := services.CheckCancelled(ctx, "reorganize"); err != nil {
				return err
			}
			members := archiveset.Siblings(path, archives)
			id, ok := r.resolveArchive(ctx, path)
			if !ok {
				a.plan.Unresolved = append(a.plan.Unresolved, path)
				continue
			}
			base := id.Base()
			gameName, target := r.folderFor(ctx, a, base)
			a.plan.Actions = append(a.plan.Actions, moveArchiveAction(members, filepath.Join(a.folder, target), base, gameName))
		}
	}

	for _, base := range looseOrder {
		gameName, target := r.folderFor(ctx, a, base)
		a.plan.Actions = append(a.plan.Actions, moveLooseAction(loose[base], filepath.Join(a.folder, target), base, gameName))
	}
	return nil
}

func (r *Reorganizer) resolveArchive(ctx context.Context, primary string) (titleid.ID, bool) {
	if id, ok := titleid.FromName(filepath.Base(primary)); ok {
		return id, true
	}
	return r.resolver.Peek(ctx, primary, r.passwords)
}

// folderFor reuses the folder already chosen for base in this pass or
// derives the canonical one.
func (r *Reorganizer) folderFor(ctx context.Context, a *analysis, base titleid.ID) (string, string) {
	gameName := r.gameName(ctx, base)
	if folder, ok := a.folders[base]; ok {
		return gameName, folder
	}
	folder := CanonicalFolderName(gameName, base)
	a.folders[base] = folder
	return gameName, folder
}

func (r *Reorganizer) gameName(ctx context.Context, base titleid.ID) string {
	if r.catalog != nil {
		info, ok, err := r.catalog.Lookup(ctx, base)
		if err != nil {
			r.logger.Debug("title lookup failed", logging.String(logging.FieldTitleID, base.String()), logging.Error(err))
		}
		if ok && info.Name != "" {
			return info.Name
		}
	}
	return fmt.Sprintf("Unknown (%s)", base)
}

// isDoubleNested reports whether dir's only subdirectory carries its own
// name. Deeper self-named chains are treated one level at a time.
func isDoubleNested(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
		}
	}
	return len(subdirs) == 1 && subdirs[0] == name
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
