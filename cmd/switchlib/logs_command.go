package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"switchlib/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines      int
		follow     bool
		jsonOutput bool
		query      logs.Query
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Long: "Show records from the JSON log file in the configured log directory.\n" +
			"Use --run with the run id printed by ingest to see a single run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(ctx.configValue().Paths.LogDir, "switchlib.log")
			tail, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			emit := func(record logs.Record) {
				if jsonOutput {
					_ = writeJSON(cmd, record)
					return
				}
				fmt.Fprintln(out, record.Format())
			}
			for _, record := range query.Filter(tail.Lines) {
				emit(record)
			}
			if !follow {
				return nil
			}

			err = logs.Follow(cmd.Context(), path, tail.Offset, 500*time.Millisecond, func(line string) {
				for _, record := range query.Filter([]string{line}) {
					emit(record)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output records as JSON")
	cmd.Flags().StringVar(&query.RunID, "run", "", "Only records of this run id")
	cmd.Flags().StringVar(&query.TitleID, "title", "", "Only records of this title id")
	cmd.Flags().StringVar(&query.Level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
