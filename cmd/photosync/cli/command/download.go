package command

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mwantia/photosync/internal/agent"
	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/internal/manifest"
	"github.com/spf13/cobra"
)

func NewDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every unique file that is not on disk yet",
		Long: `Download one copy of every content hash in the manifest that has no local copy.

Files are written to <dir>/<hash[0:2]>/<hash>.<ext>. A run can be stopped at
any time; the next run picks up the remaining content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			noVerify, _ := cmd.Flags().GetBool("no-verify")
			failOnError, _ := cmd.Flags().GetBool("fail-on-error")

			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			return withAgent(cmd, func(ctx context.Context, cfg *config.BaseConfig, a *agent.SyncAgent) error {
				opts := manifest.DownloadOptions{
					Limit:           limit,
					VerifyIntegrity: cfg.Download.Verify && !noVerify,
				}

				result, err := a.Download(ctx, opts)
				if result == nil {
					return err
				}

				printBanner(cmd, "DOWNLOAD COMPLETE")
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Candidates:  %d\n", result.Candidates)
				fmt.Fprintf(out, "Downloaded:  %d (%s)\n", result.Downloaded, humanize.Bytes(uint64(result.Bytes)))
				fmt.Fprintf(out, "Skipped:     %d\n", result.Skipped)
				fmt.Fprintf(out, "Failed:      %d\n", result.Failed)
				if result.IntegrityFailures > 0 {
					fmt.Fprintf(out, "  MD5 mismatches:  %d\n", result.IntegrityFailures)
				}
				if result.RetrievalFailures > 0 {
					fmt.Fprintf(out, "  Fetch failures:  %d\n", result.RetrievalFailures)
				}
				fmt.Fprintf(out, "Status:      %s\n", result.Status)

				if err != nil {
					return err
				}
				if failOnError && result.Failed > 0 {
					return fmt.Errorf("%d downloads failed", result.Failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int("limit", 0, "maximum number of files to process (0 means no limit)")
	cmd.Flags().Bool("no-verify", false, "skip MD5 verification of downloaded content")
	cmd.Flags().Bool("fail-on-error", false, "exit with an error when any download failed")

	return cmd
}
