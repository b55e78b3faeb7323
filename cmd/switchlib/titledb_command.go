package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"switchlib/internal/titledb"
)

func newTitleDBCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "titledb",
		Short: "Manage the local title metadata database",
	}
	cmd.AddCommand(newTitleDBUpdateCommand(ctx))
	cmd.AddCommand(newTitleDBStatusCommand(ctx))
	return cmd
}

func newTitleDBUpdateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download the title database sources and rebuild the local copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := titledb.Open(cfg.TitleDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			var opts []titledb.UpdaterOption
			if ctx.httpClient != nil {
				opts = append(opts, titledb.WithHTTPClient(ctx.httpClient))
			}
			updater := titledb.NewUpdater(store, cfg.TitleDBLockPath(), cfg.TitleDBRequestTimeout(), logger, opts...)

			out := cmd.OutOrStdout()
			result, err := updater.Update(cmd.Context(), titledb.SourcesFromConfig(cfg), func(key string) {
				if !jsonOutput {
					fmt.Fprintf(out, "Downloading %s...\n", key)
				}
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(out, "Title database updated: %s titles from %s\n",
				humanize.Comma(int64(result.Entries)), strings.Join(result.Sources, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTitleDBStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local title database state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			status := titledb.Status{Path: cfg.TitleDBPath()}
			store, err := titledb.OpenExisting(cfg.TitleDBPath())
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				if status, err = store.Status(cmd.Context()); err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:     %s\n", status.Path)
			fmt.Fprintf(out, "Present:  %s\n", yesNo(status.Exists))
			if !status.Exists {
				fmt.Fprintln(out, "Run `switchlib titledb update` to download it")
				return nil
			}
			fmt.Fprintf(out, "Titles:   %s\n", humanize.Comma(int64(status.Entries)))
			if !status.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "Updated:  %s (%s)\n", status.UpdatedAt.Local().Format("2006-01-02 15:04"), humanize.Time(status.UpdatedAt))
			}
			if status.Sources != "" {
				fmt.Fprintf(out, "Sources:  %s\n", status.Sources)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
