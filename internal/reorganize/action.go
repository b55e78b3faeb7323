package reorganize

import (
	"fmt"
	"path/filepath"
	"strings"

	"switchlib/internal/titleid"
)

// ActionKind discriminates the variants of Action.
type ActionKind string

const (
	ActionRenameFolder   ActionKind = "rename-folder"
	ActionFlattenNested  ActionKind = "flatten-nested"
	ActionMoveArchiveSet ActionKind = "move-archive-set"
	ActionMoveLooseFiles ActionKind = "move-loose-files"
	ActionDeleteJunk     ActionKind = "delete-junk"
)

// Kinds lists every action kind in display order.
func Kinds() []ActionKind {
	return []ActionKind{ActionRenameFolder, ActionFlattenNested, ActionMoveArchiveSet, ActionMoveLooseFiles, ActionDeleteJunk}
}

// Action is one planned filesystem change. Which fields are set depends on
// Kind:
//
//	rename-folder      Source, Target
//	flatten-nested     Source, Inner, Target
//	move-archive-set   Files, Target
//	move-loose-files   Files, Target
//	delete-junk        Source, IsDir
type Action struct {
	Kind        ActionKind `json:"kind"`
	Description string     `json:"description"`
	Source      string     `json:"source,omitempty"`
	Inner       string     `json:"inner,omitempty"`
	Files       []string   `json:"files,omitempty"`
	Target      string     `json:"target,omitempty"`
	IsDir       bool       `json:"is_dir,omitempty"`
	TitleID     titleid.ID `json:"title_id,omitempty"`
	GameName    string     `json:"game_name,omitempty"`
}

// Plan is the immutable result of Analyze.
type Plan struct {
	Folder  string   `json:"folder"`
	Actions []Action `json:"actions"`
	// Unresolved lists directories and archives left alone because no
	// identifier was found.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Summary counts the planned actions per kind.
func (p Plan) Summary() map[ActionKind]int {
	counts := make(map[ActionKind]int, len(Kinds()))
	for _, action := range p.Actions {
		counts[action.Kind]++
	}
	return counts
}

func renameAction(source, target string, id titleid.ID, name string) Action {
	return Action{
		Kind:        ActionRenameFolder,
		Description: fmt.Sprintf("rename %s/ -> %s/", filepath.Base(source), filepath.Base(target)),
		Source:      source,
		Target:      target,
		TitleID:     id,
		GameName:    name,
	}
}

func flattenAction(source, inner, target string, id titleid.ID, name string) Action {
	return Action{
		Kind:        ActionFlattenNested,
		Description: fmt.Sprintf("flatten %s/%s/ -> %s/", filepath.Base(source), filepath.Base(inner), filepath.Base(target)),
		Source:      source,
		Inner:       inner,
		Target:      target,
		TitleID:     id,
		GameName:    name,
	}
}

func moveArchiveAction(files []string, target string, id titleid.ID, name string) Action {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, filepath.Base(file))
	}
	return Action{
		Kind:        ActionMoveArchiveSet,
		Description: fmt.Sprintf("move %s -> %s/", strings.Join(names, ", "), filepath.Base(target)),
		Files:       files,
		Target:      target,
		TitleID:     id,
		GameName:    name,
	}
}

func moveLooseAction(files []string, target string, id titleid.ID, name string) Action {
	return Action{
		Kind:        ActionMoveLooseFiles,
		Description: fmt.Sprintf("move %d game files -> %s/", len(files), filepath.Base(target)),
		Files:       files,
		Target:      target,
		TitleID:     id,
		GameName:    name,
	}
}

func junkAction(path string, isDir bool) Action {
	suffix := ""
	if isDir {
		suffix = "/"
	}
	return Action{
		Kind:        ActionDeleteJunk,
		Description: fmt.Sprintf("delete %s%s", filepath.Base(path), suffix),
		Source:      path,
		IsDir:       isDir,
	}
}
