package preflight

import (
	"context"

	"switchlib/internal/config"
	"switchlib/internal/staging"
)

// Result reports the outcome of a single preflight check. Warning results
// passed but deserve attention.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Warning bool   `json:"warning,omitempty"`
	Detail  string `json:"detail"`
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckExtractionTool(cfg.SevenZipBinary())}
	for _, dir := range cfg.Paths.SourceDirs {
		results = append(results, CheckSourceDirectory("Source directory", dir))
	}
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	workBase := cfg.Paths.OutputDir
	if cfg.OutputIsDevice() {
		workBase = cfg.Paths.StagingDir
		results = append(results, CheckDeviceOutput(cfg))
	} else {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	results = append(results, CheckWorkDirectories(staging.Root(workBase)))
	results = append(results, CheckTitleDB(ctx, cfg.TitleDBPath()))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return true
		}
	}
	return false
}
