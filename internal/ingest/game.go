package ingest

import (
	"fmt"

	"switchlib/internal/archiveset"
	"switchlib/internal/titleid"
)

// Game is one title assembled from every source that resolved to its base
// identifier.
type Game struct {
	TitleID     titleid.ID       `json:"title_id"`
	Name        string           `json:"name"`
	IconURL     string           `json:"icon_url,omitempty"`
	Publisher   string           `json:"publisher,omitempty"`
	ArchiveSets []archiveset.Set `json:"archive_sets"`
	AllArchives []string         `json:"all_archives"`
	GameFiles   []string         `json:"game_files"`
	SourceDirs  []string         `json:"source_dirs"`
	FolderName  string           `json:"folder_name"`
	// Size is the combined size of every archive and game file in bytes.
	Size int64 `json:"size"`
}

// PlaceholderName is used for titles missing from the title database.
func PlaceholderName(id titleid.ID) string {
	return fmt.Sprintf("Unknown (%s)", id)
}

// Status classifies the outcome of processing one game.
type Status string

const (
	StatusSuccess Status = "success"
	// StatusWarning means some archives failed but game files were placed.
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// GameResult is the outcome of processing one game.
type GameResult struct {
	TitleID titleid.ID `json:"title_id"`
	Name    string     `json:"name"`
	Status  Status     `json:"status"`
	// Files are the destination paths of the placed game files.
	Files []string `json:"files"`
	// Published lists file names copied to or already present on a device.
	Published []string `json:"published,omitempty"`
	// Err is set for failed games.
	Err error `json:"-"`
	// Failures holds per-archive errors of a game that still produced files.
	Failures []error `json:"-"`
}

// ProcessResult summarizes a Process call.
type ProcessResult struct {
	RunID string       `json:"run_id"`
	Games []GameResult `json:"games"`
	// OutputDir is where files were consolidated; for device targets this is
	// the local staging directory.
	OutputDir string `json:"output_dir"`
	Device    bool   `json:"device"`
}

// Counts tallies the results by status.
func (r ProcessResult) Counts() (success, warning, failed int) {
	for _, game := range r.Games {
		switch game.Status {
		case StatusSuccess:
			success++
		case StatusWarning:
			warning++
		case StatusFailed:
			failed++
		}
	}
	return success, warning, failed
}
