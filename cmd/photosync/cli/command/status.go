package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/photosync/internal/agent"
	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/pkg/db/models"
	"github.com/spf13/cobra"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show manifest and download progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withExistingAgent(cmd, func(ctx context.Context, cfg *config.BaseConfig, a *agent.SyncAgent) error {
				report, err := a.Status(ctx)
				if err != nil {
					return err
				}

				printBanner(cmd, "STATUS")
				out := cmd.OutOrStdout()
				stats := report.Stats
				fmt.Fprintf(out, "Total files:      %s (%s)\n", humanize.Comma(stats.TotalFiles), humanize.Bytes(uint64(stats.TotalSize)))
				fmt.Fprintf(out, "Unique content:   %s\n", humanize.Comma(stats.UniqueHashes))
				fmt.Fprintf(out, "Duplicates:       %s\n", humanize.Comma(stats.Duplicates()))
				if stats.UnhashedFiles > 0 {
					fmt.Fprintf(out, "Without hash:     %s\n", humanize.Comma(stats.UnhashedFiles))
				}
				fmt.Fprintf(out, "Downloaded:       %s (%s)\n", humanize.Comma(stats.DownloadedFiles), humanize.Bytes(uint64(stats.DownloadedSize)))
				fmt.Fprintf(out, "Pending:          %s (%s)\n", humanize.Comma(stats.PendingFiles), humanize.Bytes(uint64(stats.PendingSize)))
				fmt.Fprintf(out, "Progress:         %.1f%%\n", report.Progress)

				fmt.Fprintln(out)
				printRun(out, "Last scan:       ", report.LastEnumerate)
				printRun(out, "Last download:   ", report.LastDownload)

				fmt.Fprintln(out)
				if !report.Disk.Exists {
					fmt.Fprintf(out, "Download directory %s does not exist\n", report.Disk.Dir)
					return nil
				}
				fmt.Fprintf(out, "On disk:          %s files (%s) in %s\n",
					humanize.Comma(report.Disk.Files), humanize.Bytes(uint64(report.Disk.Bytes)), report.Disk.Dir)
				if report.Disk.PartialFiles > 0 {
					fmt.Fprintf(out, "Partial files:    %d\n", report.Disk.PartialFiles)
				}
				return nil
			})
			if errors.Is(err, agent.ErrNoManifest) {
				fmt.Fprintln(cmd.OutOrStdout(), "No manifest found. Run 'photosync reconcile' first.")
				return nil
			}
			return err
		},
	}

	return cmd
}

func printRun(out io.Writer, label string, run *models.SyncRun) {
	if run == nil {
		fmt.Fprintf(out, "%s never\n", label)
		return
	}

	when := humanize.Time(run.StartedAt)
	if run.CompletedAt != nil {
		when = humanize.Time(*run.CompletedAt)
	}
	fmt.Fprintf(out, "%s %s (%s, %d files, %d new", label, when, run.Status, run.FilesFound, run.FilesNew)
	if run.ErrorCount > 0 {
		fmt.Fprintf(out, ", %d errors", run.ErrorCount)
	}
	fmt.Fprintln(out, ")")
}
