package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"switchlib/internal/i18n"
	"switchlib/internal/ingest"
	"switchlib/internal/services"
	"switchlib/internal/titleid"
)

type gameOutcome struct {
	TitleID   titleid.ID    `json:"title_id"`
	Name      string        `json:"name"`
	Status    ingest.Status `json:"status"`
	Files     []string      `json:"files"`
	Published []string      `json:"published,omitempty"`
	Message   string        `json:"message,omitempty"`
}

type ingestOutput struct {
	RunID     string        `json:"run_id"`
	OutputDir string        `json:"output_dir"`
	Device    bool          `json:"device"`
	Games     []gameOutcome `json:"games"`
	Success   int           `json:"success"`
	Warning   int           `json:"warning"`
	Failed    int           `json:"failed"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var all bool

	cmd := &cobra.Command{
		Use:   "ingest [title-id...]",
		Short: "Extract and place the selected games",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("at least one title id is required (or use --all)")
			}
			ids, err := parseTitleIDs(args)
			if err != nil {
				return err
			}
			return ctx.withPipeline(func(pipeline *ingest.Pipeline, logger *slog.Logger) error {
				bar := newProgressOutput(cmd.ErrOrStderr(), logger)
				var (
					result ingest.ProcessResult
					runErr error
				)
				if all {
					scan, scanErr := pipeline.Scan(cmd.Context(), nil)
					if scanErr != nil {
						return scanErr
					}
					result, runErr = pipeline.ProcessGames(cmd.Context(), scan.Games, bar.Func())
				} else {
					result, runErr = pipeline.Process(cmd.Context(), ids, bar.Func())
				}
				bar.Close()
				if runErr != nil && !services.IsCancelled(runErr) {
					return runErr
				}

				output := buildIngestOutput(result, ctx.localizer())
				if jsonOutput {
					if err := writeJSON(cmd, output); err != nil {
						return err
					}
				} else {
					printIngest(cmd, output, ctx.localizer())
				}
				if runErr != nil {
					return runErr
				}
				if output.Failed > 0 {
					return fmt.Errorf("%d of %d games failed", output.Failed, len(output.Games))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "Ingest every game found by scan")
	return cmd
}

func parseTitleIDs(args []string) ([]titleid.ID, error) {
	ids := make([]titleid.ID, 0, len(args))
	var invalid []string
	for _, arg := range args {
		id, ok := titleid.Parse(arg)
		if !ok {
			invalid = append(invalid, arg)
			continue
		}
		ids = append(ids, id)
	}
	if len(invalid) > 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "parse ids",
			"not a title id: "+strings.Join(invalid, ", "), nil)
	}
	return ids, nil
}

func buildIngestOutput(result ingest.ProcessResult, loc *i18n.Localizer) ingestOutput {
	output := ingestOutput{
		RunID:     result.RunID,
		OutputDir: result.OutputDir,
		Device:    result.Device,
		Games:     make([]gameOutcome, 0, len(result.Games)),
	}
	output.Success, output.Warning, output.Failed = result.Counts()
	for _, game := range result.Games {
		outcome := gameOutcome{
			TitleID:   game.TitleID,
			Name:      game.Name,
			Status:    game.Status,
			Files:     game.Files,
			Published: game.Published,
		}
		switch {
		case game.Err != nil:
			outcome.Message = loc.Error(game.Err)
		case len(game.Failures) > 0:
			outcome.Message = loc.Partial(game.Failures)
		}
		output.Games = append(output.Games, outcome)
	}
	return output
}

func printIngest(cmd *cobra.Command, output ingestOutput, loc *i18n.Localizer) {
	out := cmd.OutOrStdout()
	for _, game := range output.Games {
		line := fmt.Sprintf("%s  %s: %s", game.TitleID, game.Name, statusText(loc, game.Status))
		if game.Message != "" {
			line += " - " + game.Message
		}
		fmt.Fprintln(out, line)
		for _, file := range game.Files {
			fmt.Fprintf(out, "    %s\n", file)
		}
	}
	fmt.Fprintf(out, "%d succeeded, %d with warnings, %d failed\n", output.Success, output.Warning, output.Failed)
}

func statusText(loc *i18n.Localizer, status ingest.Status) string {
	switch status {
	case ingest.StatusSuccess:
		return loc.Sprintf(i18n.KeyStatusSuccess)
	case ingest.StatusWarning:
		return loc.Sprintf(i18n.KeyStatusWarning)
	default:
		return loc.Sprintf(i18n.KeyStatusFailed)
	}
}
