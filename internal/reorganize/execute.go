package reorganize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
)

// Outcome records the result of one action.
type Outcome struct {
	Action Action `json:"action"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}

// Report tallies an Execute run.
type Report struct {
	Outcomes  []Outcome `json:"outcomes"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	// Cancelled is set when the run stopped before the last action.
	Cancelled bool `json:"cancelled"`
}

// Errors returns the per-action errors in order.
func (r Report) Errors() []error {
	var errs []error
	for _, outcome := range r.Outcomes {
		if outcome.Err != nil {
			errs = append(errs, outcome.Err)
		}
	}
	return errs
}

// Execute applies actions in order. A failing action does not stop the
// ones after it and nothing is rolled back.
func (r *Reorganizer) Execute(ctx context.Context, folder string, actions []Action, report progress.Func) Report {
	var result Report
	logger := logging.WithContext(ctx, r.logger)
	for i, action := range actions {
		if err := services.CheckCancelled(ctx, "reorganize"); err != nil {
			result.Cancelled = true
			break
		}
		report.Emit(progress.Event{
			Stage:   progress.StageReorganize,
			Message: fmt.Sprintf("(%d/%d) %s", i+1, len(actions), action.Description),
			Percent: (i + 1) * 100 / len(actions),
		})

		err := apply(folder, action)
		outcome := Outcome{Action: action, Err: err}
		if err != nil {
			outcome.Error = err.Error()
			result.Failed++
			logging.WarnWithContext(logger, "reorganize action failed", "reorganize_action_failed",
				logging.String("kind", string(action.Kind)),
				logging.String("description", action.Description),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this entry was left as it was"),
			)
		} else {
			result.Succeeded++
			logger.Debug("reorganize action applied", logging.String("description", action.Description))
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	logger.Info("reorganize finished",
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Bool("cancelled", result.Cancelled),
		logging.String(logging.FieldEventType, "reorganize_complete"),
	)
	return result
}

func apply(folder string, action Action) error {
	switch action.Kind {
	case ActionRenameFolder:
		if exists(action.Target) {
			return fmt.Errorf("target already exists: %s", filepath.Base(action.Target))
		}
		return os.Rename(action.Source, action.Target)
	case ActionFlattenNested:
		return flatten(folder, action)
	case ActionMoveArchiveSet, ActionMoveLooseFiles:
		return moveInto(action.Files, action.Target)
	case ActionDeleteJunk:
		if action.IsDir {
			return os.RemoveAll(action.Source)
		}
		return os.Remove(action.Source)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// flatten moves the inner self-named directory up to the target name. The
// outer shell is parked under a temporary name first so the inner directory
// can take a name that may equal the shell's. A shell that still holds
// entries after that is kept.
func flatten(folder string, action Action) error {
	if exists(action.Target) {
		return fmt.Errorf("target already exists: %s", filepath.Base(action.Target))
	}
	temp := filepath.Join(folder, fmt.Sprintf("__temp_flatten_%d", time.Now().UnixNano()))
	if err := os.Rename(action.Source, temp); err != nil {
		return fmt.Errorf("park outer directory: %w", err)
	}
	inner := filepath.Join(temp, filepath.Base(action.Inner))
	if err := os.Rename(inner, action.Target); err != nil {
		if restoreErr := os.Rename(temp, action.Source); restoreErr != nil {
			return errors.Join(fmt.Errorf("move inner directory: %w", err), fmt.Errorf("restore outer directory: %w", restoreErr))
		}
		return fmt.Errorf("move inner directory: %w", err)
	}
	// Loose files beside the inner directory join it; the shell is removed
	// only once empty.
	if entries, err := os.ReadDir(temp); err == nil {
		for _, entry := range entries {
			dest := filepath.Join(action.Target, entry.Name())
			if exists(dest) {
				continue
			}
			_ = os.Rename(filepath.Join(temp, entry.Name()), dest)
		}
	}
	_ = os.Remove(temp)
	return nil
}

func moveInto(files []string, target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create target folder: %w", err)
	}
	for _, file := range files {
		dest := filepath.Join(target, filepath.Base(file))
		if exists(dest) {
			continue
		}
		if err := os.Rename(file, dest); err != nil {
			return fmt.Errorf("move %s: %w", filepath.Base(file), err)
		}
	}
	return nil
}
