// Package main provides the novelaire binary entry point.
// Novelaire is a spec-driven authoring engine: canonical facts live in
// a gated spec store, and outlines and chapters advance through
// checkable quality gates.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "novelaire"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Spec-driven authoring engine",
		Long: `Novelaire is a spec-driven authoring engine for long-form fiction.

Canonical facts live in a versioned spec store. Mutations go through a
propose/apply protocol, quality gates check outlines and chapters
against canon, and snapshots make every milestone recoverable.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.projectPath, "project", "", "Project root (auto-detected from .novelaire if empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Emit JSON output")

	cmd.AddCommand(
		newInitCmd(opts),
		newProposeCmd(opts),
		newApplyCmd(opts),
		newRejectCmd(opts),
		newSealCmd(opts),
		newQueryCmd(opts),
		newGetCmd(opts),
		newGateCmd(opts),
		newBackfillCmd(opts),
		newSnapshotCmd(opts),
		newRollbackCmd(opts),
		newPlanCmd(opts),
		newModeCmd(opts),
		newStatusCmd(opts),
		newReadCmd(opts),
		newSearchCmd(opts),
		newRefsCmd(opts),
		newStatsCmd(opts),
		newModelsCmd(opts),
		newWatchCmd(opts),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
