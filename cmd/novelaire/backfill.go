package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/backfill"
	"github.com/novelaire/novelaire/specstore"
)

// newBackfillQueue builds the queue for the current project.
func newBackfillQueue(app *appContext) *backfill.Queue {
	return backfill.NewQueue(app.manager)
}

func newBackfillCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Manage the backfill queue of not-yet-canonical facts",
		Long: `The backfill queue stages facts that surfaced during brainstorming or
drafting but are not canon yet. Items stay queued until a drained
batch is promoted through propose/apply in spec-finalize mode.`,
	}

	cmd.AddCommand(
		newBackfillAddCmd(opts),
		newBackfillListCmd(opts),
		newBackfillDrainCmd(opts),
	)
	return cmd
}

func newBackfillAddCmd(opts *globalOptions) *cobra.Command {
	var (
		domain  string
		status  string
		impact  string
		anchors []string
	)

	cmd := &cobra.Command{
		Use:   "add <fact>",
		Short: "Queue a fact for later promotion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			item, err := newBackfillQueue(app).Enqueue(
				args[0],
				specstore.Domain(domain),
				backfill.ItemStatus(status),
				backfill.Impact(impact),
				anchors,
			)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(item)
			}
			fmt.Printf("Queued %s (%s, %s)\n", item.ID, item.Domain, item.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Spec domain the fact belongs to (required)")
	cmd.Flags().StringVar(&status, "status", string(backfill.StatusNeedsConfirm), "Fact status (confirmed or needs_confirm)")
	cmd.Flags().StringVar(&impact, "impact", string(backfill.ImpactLocal), "Fact impact (local or cross-cutting)")
	cmd.Flags().StringSliceVar(&anchors, "anchor", nil, "Related spec anchor (repeatable)")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func newBackfillListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued backfill items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			items, err := newBackfillQueue(app).List()
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("Backfill queue is empty")
				return nil
			}
			for _, item := range items {
				marker := " "
				if item.ProposalID != "" {
					marker = "*"
				}
				fmt.Printf("%s %s [%s/%s/%s] %s\n", marker, item.ID, item.Domain, item.Status, item.Impact, item.Fact)
			}
			fmt.Println("\n* = already drained into a pending proposal")
			return nil
		},
	}
}

func newBackfillDrainCmd(opts *globalOptions) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Drain a batch of items for promotion",
		Long: `Drain a batch of queued items (3 to 7 per batch) for promotion into
the spec store. Draining only works in spec-finalize mode. Drained
items stay queued until the proposal created for them is applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			batch, err := newBackfillQueue(app).DrainBatch(batchSize)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(batch)
			}
			if len(batch) == 0 {
				fmt.Println("Nothing to drain")
				return nil
			}
			fmt.Printf("Drained %d item(s):\n", len(batch))
			for _, item := range batch {
				fmt.Printf("  %s [%s] %s\n", item.ID, item.Domain, item.Fact)
			}
			fmt.Println("\nPromote each fact with: novelaire propose <entry-id> ...")
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch", backfill.MaxBatch, "Batch size (clamped to 3..7)")
	return cmd
}
