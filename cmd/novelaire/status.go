package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/specstore"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the project status",
		Long: `Show a project overview: mode, seal state, spec entry counts,
pending proposals, backfill queue depth, and the latest gate results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			mode, err := app.manager.CurrentMode()
			if err != nil {
				return err
			}

			if err := app.service.Store().Refresh(); err != nil {
				return err
			}
			entries := app.service.Store().List()
			drafts, confirmed := 0, 0
			for _, entry := range entries {
				if entry.Status == specstore.StatusConfirmed {
					confirmed++
				} else {
					drafts++
				}
			}

			proposals, err := app.service.Proposals().List()
			if err != nil {
				return err
			}
			pending := 0
			for _, p := range proposals {
				if p.Status == specstore.ProposalPending {
					pending++
				}
			}

			items, err := newBackfillQueue(app).List()
			if err != nil {
				return err
			}

			seal := app.service.SealState()
			reports, err := app.engine.LoadReports()
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(map[string]any{
					"project":           app.manager.ProjectRoot(),
					"mode":              mode.String(),
					"seal":              seal,
					"entries_confirmed": confirmed,
					"entries_draft":     drafts,
					"proposals_pending": pending,
					"backfill_items":    len(items),
					"gates":             reports,
				})
			}

			fmt.Printf("Project: %s\n", app.manager.ProjectRoot())
			fmt.Printf("Mode:    %s\n", mode)
			if seal.Sealed() {
				fmt.Printf("Seal:    sealed as %s\n", seal.Label)
			} else {
				fmt.Printf("Seal:    open\n")
			}
			fmt.Printf("Spec:    %d confirmed, %d draft\n", confirmed, drafts)
			fmt.Printf("Pending: %d proposal(s), %d backfill item(s)\n", pending, len(items))
			if warnings := app.service.Store().Warnings(); len(warnings) > 0 {
				fmt.Printf("\nSpec warnings:\n")
				for _, w := range warnings {
					fmt.Printf("  %s\n", w)
				}
			}
			if len(reports) > 0 {
				fmt.Printf("\nLatest gates:\n")
				for _, report := range reports {
					fmt.Printf("  %-20s %s (%d findings, %s)\n",
						report.Gate, report.Result, len(report.Findings),
						report.RanAt.Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}
}
