package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"switchlib/internal/config"
	"switchlib/internal/extraction"
	"switchlib/internal/reorganize"
)

type organizeOutput struct {
	Plan    reorganize.Plan    `json:"plan"`
	Applied bool               `json:"applied"`
	Report  *reorganize.Report `json:"report,omitempty"`
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var apply bool

	cmd := &cobra.Command{
		Use:   "organize [folder]",
		Short: "Plan a cleanup of a library folder (apply with --apply)",
		Long: "Analyze a library folder and list the renames, flattens, moves and junk\n" +
			"deletions that would give every game a \"Name [TitleID]\" folder.\n" +
			"Nothing is changed unless --apply is given. The folder defaults to the\n" +
			"configured output directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			folder := cfg.Paths.OutputDir
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return fmt.Errorf("resolve folder: %w", err)
				}
				folder = expanded
			}
			if cfg.OutputIsDevice() && len(args) == 0 {
				return fmt.Errorf("output %s is a device target; pass a local folder", folder)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			tool, err := ctx.newTool()
			if err != nil {
				return err
			}
			var catalog reorganize.Catalog
			if store := ctx.openCatalog(logger); store != nil {
				defer store.Close()
				catalog = store
			}
			passwords := extraction.BuildPasswordList(cfg.Extraction.Passwords, cfg.Extraction.DefaultPasswords)
			reorg := reorganize.New(tool, catalog, passwords, logger)

			plan, err := reorg.Analyze(cmd.Context(), folder)
			if err != nil {
				return err
			}
			output := organizeOutput{Plan: plan}
			if apply && len(plan.Actions) > 0 {
				var bar *progressOutput
				if !jsonOutput {
					bar = newProgressOutput(cmd.ErrOrStderr(), logger)
				}
				var report reorganize.Report
				if bar != nil {
					report = reorg.Execute(cmd.Context(), folder, plan.Actions, bar.Func())
					bar.Close()
				} else {
					report = reorg.Execute(cmd.Context(), folder, plan.Actions, nil)
				}
				output.Applied = true
				output.Report = &report
			}

			if jsonOutput {
				return writeJSON(cmd, output)
			}
			printOrganize(cmd, output)
			if output.Report != nil && output.Report.Failed > 0 {
				return fmt.Errorf("%d of %d actions failed", output.Report.Failed, len(output.Report.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&apply, "apply", false, "Perform the planned actions")
	return cmd
}

func printOrganize(cmd *cobra.Command, output organizeOutput) {
	out := cmd.OutOrStdout()
	plan := output.Plan
	if len(plan.Actions) == 0 {
		fmt.Fprintf(out, "%s is already organized\n", plan.Folder)
	} else {
		rows := make([][]string, 0, len(plan.Actions))
		for i, action := range plan.Actions {
			rows = append(rows, []string{strconv.Itoa(i + 1), string(action.Kind), action.Description})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Action", "Description"}, rows, []columnAlignment{alignRight}))

		summary := plan.Summary()
		var parts []string
		for _, kind := range reorganize.Kinds() {
			if n := summary[kind]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", kind, n))
			}
		}
		fmt.Fprintf(out, "Planned: %s\n", strings.Join(parts, ", "))
	}
	if len(plan.Unresolved) > 0 {
		fmt.Fprintf(out, "Left alone (no title id): %d\n", len(plan.Unresolved))
	}

	if output.Report == nil {
		if len(plan.Actions) > 0 {
			fmt.Fprintln(out, "Dry run; re-run with --apply to perform these actions")
		}
		return
	}
	report := output.Report
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			fmt.Fprintf(out, "  failed: %s: %v\n", outcome.Action.Description, outcome.Err)
		}
	}
	fmt.Fprintf(out, "Applied: %d succeeded, %d failed, cancelled: %s\n", report.Succeeded, report.Failed, yesNo(report.Cancelled))
}
