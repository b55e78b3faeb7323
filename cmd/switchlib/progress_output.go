package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"switchlib/internal/logging"
	"switchlib/internal/progress"
)

// progressOutput renders progress events as a bar on terminals and as
// sampled log records elsewhere.
type progressOutput struct {
	bar     *progressbar.ProgressBar
	writer  io.Writer
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	current string
}

func newProgressOutput(writer io.Writer, logger *slog.Logger) *progressOutput {
	p := &progressOutput{writer: writer, logger: logger}
	if isTerminal(writer) {
		return p
	}
	p.sampler = logging.NewProgressSampler(25)
	return p
}

func (p *progressOutput) newBar(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.writer) }),
	)
}

// Func adapts the output to a progress.Func.
func (p *progressOutput) Func() progress.Func {
	return func(e progress.Event) {
		if e.TitleID != p.current {
			p.finish()
			p.current = e.TitleID
			if p.sampler != nil {
				p.sampler.Reset()
			}
		}
		if p.sampler != nil {
			if p.sampler.ShouldLog(e.Percent, string(e.Stage)) {
				p.logger.Info("progress",
					logging.String(logging.FieldTitleID, e.TitleID),
					logging.String("stage", string(e.Stage)),
					logging.String("message", e.Message),
					logging.Int("percent", e.Percent),
				)
			}
			return
		}
		description := fmt.Sprintf("%s %-13s %s", e.TitleID, e.Stage, e.Message)
		if p.bar == nil {
			p.bar = p.newBar(description)
		} else {
			p.bar.Describe(description)
		}
		_ = p.bar.Set(e.Percent)
	}
}

func (p *progressOutput) finish() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		_ = p.bar.Finish()
	}
	p.bar = nil
}

// Close finishes the active bar.
func (p *progressOutput) Close() {
	p.finish()
}
