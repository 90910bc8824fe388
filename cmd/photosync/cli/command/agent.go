package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwantia/photosync/internal/agent"
	"github.com/mwantia/photosync/internal/config"
	"github.com/spf13/cobra"
)

type agentFunc func(ctx context.Context, cfg *config.BaseConfig, a *agent.SyncAgent) error

// withAgent loads the configuration, opens the manifest and runs fn with a
// context that is cancelled on SIGINT or SIGTERM.
func withAgent(cmd *cobra.Command, fn agentFunc) error {
	return runAgent(cmd, false, fn)
}

// withExistingAgent is withAgent for read-only commands. It fails with
// agent.ErrNoManifest instead of creating an empty manifest.
func withExistingAgent(cmd *cobra.Command, fn agentFunc) error {
	return runAgent(cmd, true, fn)
}

func runAgent(cmd *cobra.Command, existing bool, fn agentFunc) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []agent.Option{}
	if cfg.Download.Progress {
		opts = append(opts, agent.WithProgressOutput(cmd.ErrOrStderr()))
	}

	a := agent.NewAgent(cfg, opts...)

	open := a.Open
	if existing {
		open = a.OpenExisting
	}
	if err := open(ctx); err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close manifest: %v\n", err)
		}
	}()

	return fn(ctx, cfg, a)
}

func printBanner(cmd *cobra.Command, title string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, "============================================================")
}
