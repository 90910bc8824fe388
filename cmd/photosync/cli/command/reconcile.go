package command

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/photosync/internal/agent"
	"github.com/mwantia/photosync/internal/config"
	"github.com/spf13/cobra"
)

func NewReconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reconcile",
		Aliases: []string{"enumerate"},
		Short:   "Scan the remote library and update the manifest",
		Long: `Scan the remote library and merge every observed file into the local manifest.

The standard scan covers the whole library, videos and one partition per year.
Use --full to add monthly partitions for the most recent years, which picks up
files the coarser partitions can miss.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")

			return withAgent(cmd, func(ctx context.Context, cfg *config.BaseConfig, a *agent.SyncAgent) error {
				summary, err := a.Reconcile(ctx, full)
				if summary == nil {
					return err
				}

				printBanner(cmd, "SCAN COMPLETE")
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Files seen this run:   %s\n", humanize.Comma(summary.FilesFound))
				fmt.Fprintf(out, "New files:             %s\n", humanize.Comma(summary.FilesNew))
				fmt.Fprintf(out, "Total in manifest:     %s\n", humanize.Comma(summary.TotalFiles))
				fmt.Fprintf(out, "Unique content hashes: %s\n", humanize.Comma(summary.UniqueHashes))
				fmt.Fprintf(out, "Duplicates:            %s\n", humanize.Comma(summary.Duplicates))
				if summary.PartitionErrors > 0 {
					fmt.Fprintf(out, "Failed partitions:     %d\n", summary.PartitionErrors)
				}
				fmt.Fprintf(out, "Status:                %s\n", summary.Status)

				return err
			})
		},
	}

	cmd.Flags().Bool("full", false, "include monthly partitions for recent years")

	return cmd
}
