package titledb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"switchlib/internal/titleid"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes. A mismatching database is
// rebuilt on the next update.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	metaUpdatedAt = "updated_at"
	metaSources   = "sources"
)

// Info is the metadata known about one base title.
type Info struct {
	ID        titleid.ID `json:"id"`
	Name      string     `json:"name"`
	IconURL   string     `json:"icon_url,omitempty"`
	Publisher string     `json:"publisher,omitempty"`
}

// Status summarizes the local database.
type Status struct {
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	Entries   int       `json:"entries"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
	Sources   string    `json:"sources,omitempty"`
}

// Store is the SQLite-backed title table.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create titledb directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenExisting opens the database only when the file is already present.
// It returns nil without error when nothing has been downloaded yet.
func OpenExisting(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat titledb: %w", err)
	}
	return Open(path)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'switchlib titledb update' after deleting %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Lookup returns metadata for id, trying the exact identifier before its
// base form.
func (s *Store) Lookup(ctx context.Context, id titleid.ID) (Info, bool, error) {
	if s == nil || s.db == nil {
		return Info{}, false, nil
	}
	candidates := []titleid.ID{id}
	if base := id.Base(); base != id {
		candidates = append(candidates, base)
	}
	for _, candidate := range candidates {
		var info Info
		err := s.db.QueryRowContext(ctx,
			"SELECT id, name, icon_url, publisher FROM titles WHERE id = ?", candidate.String(),
		).Scan(&info.ID, &info.Name, &info.IconURL, &info.Publisher)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return Info{}, false, fmt.Errorf("lookup %s: %w", candidate, err)
		}
		return info, true, nil
	}
	return Info{}, false, nil
}

// Status reports the entry count and the time of the last update.
func (s *Store) Status(ctx context.Context) (Status, error) {
	status := Status{Path: s.path, Exists: true}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM titles").Scan(&status.Entries); err != nil {
		return status, fmt.Errorf("count titles: %w", err)
	}
	updated, err := s.meta(ctx, metaUpdatedAt)
	if err != nil {
		return status, err
	}
	if updated != "" {
		if ts, parseErr := time.Parse(time.RFC3339Nano, updated); parseErr == nil {
			status.UpdatedAt = ts
		}
	}
	if status.Sources, err = s.meta(ctx, metaSources); err != nil {
		return status, err
	}
	return status, nil
}

func (s *Store) meta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read metadata %s: %w", key, err)
	}
	return value, nil
}

// Replace swaps the whole titles table for entries in one transaction.
func (s *Store) Replace(ctx context.Context, entries map[titleid.ID]Info, sources string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM titles"); err != nil {
		return fmt.Errorf("clear titles: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO titles (id, name, icon_url, publisher) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for id, info := range entries {
		if _, err := stmt.ExecContext(ctx, id.String(), info.Name, info.IconURL, info.Publisher); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, value := range map[string]string{metaUpdatedAt: now, metaSources: sources} {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		); err != nil {
			return fmt.Errorf("write metadata %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}
