package device

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/progress"
	"switchlib/internal/services"
)

// PublishResult lists what happened to each staged file.
type PublishResult struct {
	Copied  []string `json:"copied"`
	Skipped []string `json:"skipped"`
}

// Publish copies each staged file to destFolder on the device, skipping
// files the device already holds with an equal size. Percentages cover 0-100
// of the batch.
func Publish(ctx context.Context, sink Sink, files []string, destFolder string, report progress.Func, logger *slog.Logger) (PublishResult, error) {
	var result PublishResult
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "device"))
	total := len(files)
	for i, file := range files {
		if err := services.CheckCancelled(ctx, "device"); err != nil {
			return result, err
		}
		name := filepath.Base(file)
		size, _, err := fileutil.SizeOf(file)
		if err != nil {
			return result, fmt.Errorf("inspect staged file: %w", err)
		}
		exists, deviceSize, err := sink.FileExistsOnDevice(ctx, destFolder, name)
		if err != nil {
			return result, err
		}
		if exists && deviceSize == size {
			result.Skipped = append(result.Skipped, name)
			report.Emit(progress.Event{Stage: progress.StageSkipping, Message: name, Percent: (i + 1) * 100 / total})
			logger.Info("device already holds file", logging.String("file", name))
			continue
		}

		report.Emit(progress.Event{Stage: progress.StageDevice, Message: name, Percent: i * 100 / total})
		if err := sink.CopyFileToDevice(ctx, file, destFolder); err != nil {
			return result, err
		}
		result.Copied = append(result.Copied, name)
		logger.Info("file published to device",
			logging.String("file", name),
			logging.Int64("bytes", size),
			logging.String(logging.FieldEventType, "device_copy"),
		)
	}
	if total > 0 {
		report.Emit(progress.Event{Stage: progress.StageDevice, Message: "done", Percent: 100})
	}
	return result, nil
}
