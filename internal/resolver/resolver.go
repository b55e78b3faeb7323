package resolver

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"switchlib/internal/archiveset"
	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/titleid"
)

// Lister is the listing capability of the extraction tool.
type Lister interface {
	List(ctx context.Context, archive, password string) ([]string, error)
}

// Kind distinguishes the candidate shapes Resolve accepts.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindArchiveSet
)

// Candidate is something that may belong to a game.
type Candidate struct {
	Kind Kind
	Path string
	Set  archiveset.Set
}

// FileCandidate wraps a single file path.
func FileCandidate(path string) Candidate { return Candidate{Kind: KindFile, Path: path} }

// DirectoryCandidate wraps a directory path.
func DirectoryCandidate(path string) Candidate { return Candidate{Kind: KindDirectory, Path: path} }

// SetCandidate wraps an archive set.
func SetCandidate(set archiveset.Set) Candidate {
	return Candidate{Kind: KindArchiveSet, Path: set.Primary(), Set: set}
}

// Resolver maps files, directories, and archive sets to title identifiers,
// cheapest rule first: own name, descendant names, then a listing peek.
type Resolver struct {
	lister Lister
	logger *slog.Logger
}

// New builds a resolver. A nil lister disables peeking.
func New(lister Lister, logger *slog.Logger) *Resolver {
	return &Resolver{lister: lister, logger: logging.NewComponentLogger(logger, "resolver")}
}

// ResolveName matches a bracketed identifier in the last element of path.
func ResolveName(path string) (titleid.ID, bool) {
	return titleid.FromPath(path)
}

// nameInTree looks for a bracketed identifier in every path element of
// files relative to dir.
func nameInTree(dir string, files []string) (titleid.ID, bool) {
	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			rel = filepath.Base(file)
		}
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if id, ok := titleid.FromName(part); ok {
				return id, true
			}
		}
	}
	return "", false
}

// ResolveWalked resolves a directory whose files were already collected:
// own name, descendant names, then a peek into each archive set found.
func (r *Resolver) ResolveWalked(ctx context.Context, dir string, files []string, passwords []string) (titleid.ID, bool) {
	if id, ok := ResolveName(dir); ok {
		return id, true
	}
	if id, ok := nameInTree(dir, files); ok {
		return id, true
	}
	for _, set := range archiveset.Group(files) {
		if id, ok := r.ResolveArchive(ctx, set, passwords); ok {
			return id, true
		}
	}
	return "", false
}

// PeekPasswords returns passwords with the empty password appended when the
// list does not already contain it.
func PeekPasswords(passwords []string) []string {
	out := append([]string(nil), passwords...)
	for _, pw := range out {
		if pw == "" {
			return out
		}
	}
	return append(out, "")
}

// Peek lists archive once per password until a listing succeeds and yields
// an identifier. A bracketed identifier on any line wins; otherwise a line
// naming a game file with any bare sixteen-digit run is accepted.
func (r *Resolver) Peek(ctx context.Context, archive string, passwords []string) (titleid.ID, bool) {
	if r == nil || r.lister == nil {
		return "", false
	}
	for i, pw := range PeekPasswords(passwords) {
		if ctx.Err() != nil {
			return "", false
		}
		lines, err := r.lister.List(ctx, archive, pw)
		if err != nil {
			r.logger.Debug("archive listing failed",
				logging.String("archive", filepath.Base(archive)),
				logging.Int("password_index", i),
				logging.Error(err),
			)
			continue
		}
		if id, ok := idFromListing(lines); ok {
			r.logger.Debug("identified archive by listing",
				logging.String("archive", filepath.Base(archive)),
				logging.String(logging.FieldTitleID, id.String()),
			)
			return id, true
		}
	}
	return "", false
}

func idFromListing(lines []string) (titleid.ID, bool) {
	for _, line := range lines {
		if id, ok := titleid.FromName(line); ok {
			return id, true
		}
	}
	for _, line := range lines {
		if !mentionsGameFile(line) {
			continue
		}
		if id, ok := titleid.FromBareRun(line); ok {
			return id, true
		}
	}
	return "", false
}

func mentionsGameFile(line string) bool {
	lower := strings.ToLower(line)
	for _, ext := range archiveset.GameExtensions() {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// ResolveArchive checks every member name of set, then peeks the primary.
func (r *Resolver) ResolveArchive(ctx context.Context, set archiveset.Set, passwords []string) (titleid.ID, bool) {
	for _, file := range set.Files() {
		if id, ok := ResolveName(file); ok {
			return id, true
		}
	}
	return r.Peek(ctx, set.Primary(), passwords)
}

// Resolve applies the rules matching the candidate kind. An unresolved
// candidate returns false; it is never an error.
func (r *Resolver) Resolve(ctx context.Context, c Candidate, passwords []string) (titleid.ID, bool) {
	switch c.Kind {
	case KindDirectory:
		if id, ok := ResolveName(c.Path); ok {
			return id, true
		}
		walk := fileutil.Walk(c.Path)
		if walk.Skipped > 0 {
			r.logger.Debug("directory walk skipped unreadable entries",
				logging.String("path", c.Path),
				logging.Int("skipped", walk.Skipped),
			)
		}
		return r.ResolveWalked(ctx, c.Path, walk.Files, passwords)
	case KindArchiveSet:
		return r.ResolveArchive(ctx, c.Set, passwords)
	case KindFile:
		if id, ok := ResolveName(c.Path); ok {
			return id, true
		}
		if archiveset.IsArchive(c.Path) {
			return r.Peek(ctx, c.Path, passwords)
		}
		return "", false
	default:
		return "", false
	}
}
