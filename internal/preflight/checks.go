package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"switchlib/internal/config"
	"switchlib/internal/deps"
	"switchlib/internal/device"
	"switchlib/internal/logging"
	"switchlib/internal/staging"
	"switchlib/internal/titledb"
)

// CheckExtractionTool verifies the 7-Zip compatible binary can be found.
func CheckExtractionTool(binary string) Result {
	const name = "Extraction tool"
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        name,
		Command:     binary,
		Description: "Required for listing and extracting archives",
	}})[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Resolved}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckSourceDirectory verifies a source folder exists and can be listed. A
// missing source is a warning since scans skip it.
func CheckSourceDirectory(name, path string) Result {
	result := checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
	if !result.Passed {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Warning: true, Detail: result.Detail}
		}
	}
	return result
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckWorkDirectories reports extraction work directories left behind by
// interrupted runs. Leftovers are a warning; the next ingest removes the
// stale ones.
func CheckWorkDirectories(root string) Result {
	const name = "Work directories"
	dirs, err := staging.ListDirectories(root)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", root, err)}
	}
	if len(dirs) == 0 {
		return Result{Name: name, Passed: true, Detail: "none left over"}
	}
	var total int64
	oldest := dirs[0].ModTime
	for _, dir := range dirs {
		total += dir.Size
		if dir.ModTime.Before(oldest) {
			oldest = dir.ModTime
		}
	}
	return Result{
		Name:    name,
		Passed:  true,
		Warning: true,
		Detail: fmt.Sprintf("%d left over in %s (%s, oldest %s)",
			len(dirs), root, humanize.IBytes(uint64(total)), humanize.Time(oldest)),
	}
}

// CheckDeviceOutput verifies the device named by the output target is
// mounted and its folder is writable.
func CheckDeviceOutput(cfg *config.Config) Result {
	const name = "Device output"
	sink := device.NewMountSinkFromConfig(cfg, logging.NewNop())
	local, err := sink.Resolve(cfg.Paths.OutputDir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.OutputDir, err)}
	}
	result := CheckDirectoryAccess(name, local)
	if result.Passed {
		result.Detail = fmt.Sprintf("%s -> %s", sink.DisplayNameOf(context.Background(), local), local)
	}
	return result
}

// CheckTitleDB reports whether the local title database has been
// downloaded. An absent database is a warning since names fall back to
// placeholders.
func CheckTitleDB(ctx context.Context, path string) Result {
	const name = "Title database"
	store, err := titledb.OpenExisting(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if store == nil {
		return Result{Name: name, Passed: true, Warning: true, Detail: "not downloaded; run `switchlib titledb update`"}
	}
	defer store.Close()

	status, err := store.Status(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if status.Entries == 0 {
		return Result{Name: name, Passed: true, Warning: true, Detail: "empty; run `switchlib titledb update`"}
	}
	detail := fmt.Sprintf("%s titles", humanize.Comma(int64(status.Entries)))
	if !status.UpdatedAt.IsZero() {
		detail += ", updated " + humanize.Time(status.UpdatedAt)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
