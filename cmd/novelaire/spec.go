package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/events"
	"github.com/novelaire/novelaire/specstore"
)

func newProposeCmd(opts *globalOptions) *cobra.Command {
	var (
		title         string
		status        string
		tags          []string
		aliases       []string
		bodyFile      string
		reason        string
		citations     []string
		backfillItems []string
	)

	cmd := &cobra.Command{
		Use:   "propose <entry-id>",
		Short: "Stage a spec mutation as a proposal",
		Long: `Stage a create or update of one spec entry. The proposal records the
old text, the new text, and a unified diff; nothing changes in canon
until the proposal is applied with explicit approval.

The entry body is read from --body-file, or from stdin when the flag
is "-" or omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			body, err := readBody(bodyFile)
			if err != nil {
				return err
			}

			entryStatus := specstore.EntryStatus(status)
			if !entryStatus.IsValid() {
				return fmt.Errorf("invalid status %q (want draft or confirmed)", status)
			}

			proposal, err := app.service.Propose(specstore.ProposeRequest{
				ID:        args[0],
				Title:     title,
				Status:    entryStatus,
				Tags:      tags,
				Aliases:   aliases,
				Body:      body,
				Reason:    reason,
				Citations: citations,
			})
			if err != nil {
				return err
			}

			// Link drained backfill items so they resolve when the
			// proposal is applied.
			queue := newBackfillQueue(app)
			for _, itemID := range backfillItems {
				if err := queue.MarkProposed(itemID, proposal.ID); err != nil {
					return err
				}
			}

			app.publisher.Publish(events.SubjectProposalCreated, map[string]string{
				"proposal_id": proposal.ID,
				"entry_id":    proposal.EntryID,
			})

			if opts.jsonOutput {
				return printJSON(proposal)
			}
			fmt.Printf("Proposal %s staged for %s\n\n%s\n", proposal.ID, proposal.EntryID, proposal.Diff)
			fmt.Printf("Apply with: novelaire apply %s --approve\n", proposal.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Entry title")
	cmd.Flags().StringVar(&status, "status", string(specstore.StatusDraft), "Entry status (draft or confirmed)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Entry tag (repeatable)")
	cmd.Flags().StringSliceVar(&aliases, "alias", nil, "Entry alias (repeatable)")
	cmd.Flags().StringVar(&bodyFile, "body-file", "-", "File with the entry body markdown (- for stdin)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why this change is needed")
	cmd.Flags().StringSliceVar(&citations, "cite", nil, "Supporting citation (repeatable)")
	cmd.Flags().StringSliceVar(&backfillItems, "backfill-item", nil, "Backfill item this proposal promotes (repeatable)")

	return cmd
}

func newApplyCmd(opts *globalOptions) *cobra.Command {
	var approve bool

	cmd := &cobra.Command{
		Use:   "apply <proposal-id>",
		Short: "Apply a staged proposal to canon",
		Long: `Apply a staged proposal, writing the entry to spec/. Applying
requires explicit approval via --approve and fails while the store is
sealed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			entry, err := app.service.Apply(args[0], approve)
			if err != nil {
				return err
			}

			// An applied proposal settles any backfill items waiting on it.
			resolved, err := newBackfillQueue(app).Resolve(args[0])
			if err != nil {
				app.logger.Warn("Failed to resolve backfill items", "error", err)
			}

			app.publisher.Publish(events.SubjectProposalApplied, map[string]string{
				"proposal_id": args[0],
				"entry_id":    entry.ID,
			})

			if opts.jsonOutput {
				return printJSON(entry)
			}
			fmt.Printf("Applied %s -> %s\n", args[0], entry.Path)
			if resolved > 0 {
				fmt.Printf("Resolved %d backfill item(s)\n", resolved)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "Confirm the mutation")
	return cmd
}

func newRejectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <proposal-id>",
		Short: "Reject a staged proposal",
		Long: `Close a pending proposal without applying it. Canon is untouched;
the proposal stays on record as rejected and cannot be applied later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			proposal, err := app.service.Reject(args[0])
			if err != nil {
				return err
			}

			app.publisher.Publish(events.SubjectProposalRejected, map[string]string{
				"proposal_id": proposal.ID,
				"entry_id":    proposal.EntryID,
			})

			if opts.jsonOutput {
				return printJSON(proposal)
			}
			fmt.Printf("Rejected %s (%s)\n", proposal.ID, proposal.EntryID)
			return nil
		},
	}
}

func newSealCmd(opts *globalOptions) *cobra.Command {
	var approve bool

	cmd := &cobra.Command{
		Use:   "seal <label>",
		Short: "Seal the spec store under a version label",
		Long: `Snapshot the project and mark the spec store read-only under the
given label (e.g. v1.0). A sealed store rejects further applies until
a rollback reopens it. Sealing an already sealed store fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			ref, err := app.service.Seal(args[0], approve)
			if err != nil {
				return err
			}

			app.publisher.Publish(events.SubjectSpecSealed, map[string]string{
				"label":       args[0],
				"snapshot_id": ref.ID,
			})

			if opts.jsonOutput {
				return printJSON(ref)
			}
			fmt.Printf("Sealed spec store as %s (snapshot %s)\n", ref.Label, ref.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "Confirm the seal")
	return cmd
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search spec entries by id, title, tags, and aliases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.service.Store().Refresh(); err != nil {
				return err
			}
			results := app.service.Store().Query(args[0], maxResults)

			if opts.jsonOutput {
				return printJSON(results)
			}
			if len(results) == 0 {
				fmt.Println("No matching entries")
				return nil
			}
			for _, r := range results {
				if r.Title != "" {
					fmt.Printf("%s\t%s\n", r.ID, r.Title)
				} else {
					fmt.Println(r.ID)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 20, "Maximum matches to return")
	return cmd
}

func newGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <entry-id>",
		Short: "Print one spec entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.service.Store().Refresh(); err != nil {
				return err
			}
			entry, body, err := app.service.Store().Get(args[0])
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(map[string]any{"entry": entry, "body": body})
			}
			fmt.Printf("# %s\n", entry.ID)
			if entry.Title != "" {
				fmt.Printf("title: %s\n", entry.Title)
			}
			fmt.Printf("status: %s\n", entry.Status)
			if len(entry.Tags) > 0 {
				fmt.Printf("tags: %s\n", strings.Join(entry.Tags, ", "))
			}
			if len(entry.Aliases) > 0 {
				fmt.Printf("aliases: %s\n", strings.Join(entry.Aliases, ", "))
			}
			fmt.Printf("\n%s\n", strings.TrimRight(body, "\n"))
			return nil
		},
	}
}

// readBody reads the entry body from a file, or stdin for "-".
func readBody(bodyFile string) (string, error) {
	if bodyFile == "" || bodyFile == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(bodyFile)
	if err != nil {
		return "", fmt.Errorf("read body file: %w", err)
	}
	return string(data), nil
}
