package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mwantia/photosync/internal/agent"
	"github.com/mwantia/photosync/internal/config"
	"github.com/spf13/cobra"
)

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the manifest as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			return withExistingAgent(cmd, func(ctx context.Context, cfg *config.BaseConfig, a *agent.SyncAgent) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					file, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", output, err)
					}
					defer file.Close()
					w = file
				}

				rows, err := a.Export(ctx, w)
				if err != nil {
					return err
				}

				if w != cmd.OutOrStdout() {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", rows, output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "output file (default is stdout)")

	return cmd
}
