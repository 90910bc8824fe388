package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwantia/photosync/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management utilities",
		Long: `Manage photosync configuration files.

This command provides utilities for generating configuration files
that can be customized for your library.`,
	}

	cmd.AddCommand(newConfigGenerateCommand())

	return cmd
}

func newConfigGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an example configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			filename, written, err := generateConfig(outputDir, overwrite)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !written {
				fmt.Fprintf(out, "Skipping %s (file exists, use --overwrite to replace)\n", filename)
				return nil
			}

			fmt.Fprintf(out, "Generated %s\n", filename)
			return nil
		},
	}

	cmd.Flags().String("output", ".", "output directory for configuration files")
	cmd.Flags().Bool("overwrite", false, "overwrite existing files")

	return cmd
}

func generateConfig(outputDir string, overwrite bool) (string, bool, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(outputDir, "photosync.yaml")
	if _, err := os.Stat(filename); err == nil && !overwrite {
		return filename, false, nil
	}

	data, err := yaml.Marshal(config.GetDefault())
	if err != nil {
		return filename, false, fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return filename, false, fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return filename, true, nil
}
