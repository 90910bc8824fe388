package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/photosync/internal/agent"
	"github.com/mwantia/photosync/internal/config"
	"github.com/spf13/cobra"
)

func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check recent remote files against the manifest",
		Long: `Run a short probe scan of the current year and report files the manifest does
not know yet. The manifest is never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExistingAgent(cmd, func(ctx context.Context, cfg *config.BaseConfig, a *agent.SyncAgent) error {
				report, err := a.Verify(ctx)
				if err != nil {
					return err
				}

				printBanner(cmd, "VERIFICATION")
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Manifest files:   %s\n", humanize.Comma(report.ManifestFiles))
				fmt.Fprintf(out, "Manifest hashes:  %s\n", humanize.Comma(report.ManifestHashes))
				fmt.Fprintf(out, "Probed files:     %d\n", report.Scanned)
				fmt.Fprintf(out, "Unknown IDs:      %d\n", report.NewFiles)
				fmt.Fprintf(out, "  duplicates:     %d\n", report.Duplicates)
				fmt.Fprintf(out, "  truly new:      %d\n", report.TrulyNew)
				if report.PartitionErrors > 0 {
					fmt.Fprintf(out, "Failed partitions: %d\n", report.PartitionErrors)
				}

				if len(report.DuplicateSamples) > 0 {
					fmt.Fprintln(out, "\nAlready backed up under another id:")
					for _, item := range report.DuplicateSamples {
						fmt.Fprintf(out, "  %s  %s  (same content as %s)\n", item.Created, item.Name, strings.Join(item.DuplicateOf, ", "))
					}
					if more := report.Duplicates - len(report.DuplicateSamples); more > 0 {
						fmt.Fprintf(out, "  ... and %d more\n", more)
					}
				}

				if report.TrulyNew == 0 {
					fmt.Fprintln(out, "\nManifest is up to date")
					return nil
				}

				fmt.Fprintln(out, "\nNew content:")
				for _, item := range report.Samples {
					fmt.Fprintf(out, "  %s  %s  %s\n", item.Created, item.Name, humanize.Bytes(uint64(item.Size)))
				}
				if more := report.TrulyNew - len(report.Samples); more > 0 {
					fmt.Fprintf(out, "  ... and %d more\n", more)
				}
				fmt.Fprintln(out, "\nRun 'photosync reconcile' to add them")
				return nil
			})
		},
	}

	return cmd
}
