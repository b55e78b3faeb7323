package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"switchlib/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the extraction tool, folders, device and title database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), ctx.configValue())
			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				fmt.Fprintln(out, renderSectionHeader("switchlib doctor", colorize))
				for _, result := range results {
					fmt.Fprintln(out, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
				}
			}
			if preflight.Failed(results) {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func resultKind(result preflight.Result) statusKind {
	switch {
	case !result.Passed:
		return statusError
	case result.Warning:
		return statusWarn
	default:
		return statusOK
	}
}
