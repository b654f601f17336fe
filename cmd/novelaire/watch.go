package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/watch"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run gates as artifacts change",
		Long: `Watch the project tree and re-run the affected gates whenever spec
entries, outlines, or chapters change. While watching, prometheus
metrics are served on the configured address. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			if debounce <= 0 {
				debounce = app.cfg.Watch.DebounceDelay
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = app.cfg.Watch.MetricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s (Ctrl-C to stop)\n", app.manager.ProjectRoot())
			runner := watch.NewRunner(app.manager, app.engine, app.logger)
			return runner.Run(ctx, debounce, metricsAddr)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Debounce delay before re-gating (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics listen address (empty = config default)")
	return cmd
}
