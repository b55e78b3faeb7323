package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"switchlib/internal/ingest"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the games found in the source folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(func(pipeline *ingest.Pipeline, _ *slog.Logger) error {
				result, err := pipeline.Scan(cmd.Context(), nil)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				printScan(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printScan(cmd *cobra.Command, result ingest.ScanResult) {
	out := cmd.OutOrStdout()
	if len(result.Games) == 0 {
		fmt.Fprintln(out, "No games found")
	} else {
		rows := make([][]string, 0, len(result.Games))
		var total int64
		for _, game := range result.Games {
			total += game.Size
			rows = append(rows, []string{
				game.TitleID.String(),
				game.Name,
				strconv.Itoa(len(game.ArchiveSets)),
				strconv.Itoa(len(game.GameFiles)),
				humanize.IBytes(uint64(max(game.Size, 0))),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Title ID", "Name", "Archives", "Files", "Size"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
		))
		fmt.Fprintf(out, "%d games, %s\n", len(result.Games), humanize.IBytes(uint64(max(total, 0))))
	}
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(out, "Unresolved (%d):\n  %s\n", len(result.Unresolved), strings.Join(result.Unresolved, "\n  "))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(out, "Skipped %d unreadable entries\n", result.Skipped)
	}
}
