package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/workflow"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a novelaire project",
		Long: `Initialize a novelaire project at the given path (default: current
directory). Creates the .novelaire state directory and the artifact
directories (spec/, outline/, chapters/, drafts/, refs/). Running init
on an existing project is a no-op.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.logLevel)

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			manager := workflow.NewManager(abs)
			if err := manager.EnsureDirectories(); err != nil {
				return err
			}

			mode, err := manager.CurrentMode()
			if err != nil {
				return err
			}

			logger.Info("Project initialized", "root", abs, "mode", mode.String())
			fmt.Printf("Initialized novelaire project at %s (mode: %s)\n", abs, mode)
			return nil
		},
	}
}
