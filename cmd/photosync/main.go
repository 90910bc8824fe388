package main

import (
	"fmt"
	"os"

	"github.com/mwantia/photosync/cmd/photosync/cli"
	"github.com/mwantia/photosync/cmd/photosync/cli/command"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(command.NewReconcileCommand())
	root.AddCommand(command.NewDownloadCommand())
	root.AddCommand(command.NewVerifyCommand())
	root.AddCommand(command.NewStatusCommand())
	root.AddCommand(command.NewExportCommand())
	root.AddCommand(command.NewConfigCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
