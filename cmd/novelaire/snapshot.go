package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/events"
)

func newSnapshotCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage project snapshots",
		Long: `Snapshots capture the working set (spec, outline, chapters, drafts,
refs) plus the seal state. Milestones are created explicitly; sealing
and rollback create snapshots automatically.`,
	}

	cmd.AddCommand(
		newSnapshotCreateCmd(opts),
		newSnapshotListCmd(opts),
		newSnapshotDiffCmd(opts),
	)
	return cmd
}

func newSnapshotCreateCmd(opts *globalOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "create <label>",
		Short: "Create a labeled milestone snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			manifest, err := app.snapshots.Create(args[0], reason)
			if err != nil {
				return err
			}

			app.publisher.Publish(events.SubjectSnapshotCreated, map[string]string{
				"snapshot_id": manifest.ID,
				"label":       manifest.Label,
			})

			if opts.jsonOutput {
				return printJSON(manifest)
			}
			fmt.Printf("Snapshot %s (%s) captured %d file(s)\n", manifest.ID, manifest.Label, len(manifest.Files))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why this snapshot was taken")
	return cmd
}

func newSnapshotListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			manifests, err := app.snapshots.List()
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(manifests)
			}
			if len(manifests) == 0 {
				fmt.Println("No snapshots")
				return nil
			}
			for _, m := range manifests {
				label := m.Label
				if label == "" {
					label = "-"
				}
				fmt.Printf("%s  %-20s %-13s %s  (%d files)\n",
					m.CreatedAt.Format("2006-01-02 15:04:05"), label, m.Scope, m.ID, len(m.Files))
			}
			return nil
		},
	}
}

func newSnapshotDiffCmd(opts *globalOptions) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "diff <ref-a> <ref-b>",
		Short: "Diff two snapshots by id or label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			delta, err := app.snapshots.Diff(args[0], args[1])
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(delta)
			}
			fmt.Print(delta.Render())
			if full {
				for _, change := range delta.Changes {
					if change.Diff != "" {
						fmt.Printf("\n%s\n", change.Diff)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Also print per-file unified diffs")
	return cmd
}

func newRollbackCmd(opts *globalOptions) *cobra.Command {
	var (
		approve  bool
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "rollback <ref>",
		Short: "Restore the working set to a snapshot",
		Long: `Restore the working set to the given snapshot (by id or label).
Rollback is destructive: files the snapshot does not contain are
removed. A pre-rollback backup snapshot is taken first unless
disabled. Rolling back past a seal reopens the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.snapshots.Rollback(args[0], approve, !noBackup)
			if err != nil {
				return err
			}

			app.publisher.Publish(events.SubjectRollback, map[string]string{
				"target":    result.Target,
				"backup_id": result.BackupID,
			})

			if opts.jsonOutput {
				return printJSON(result)
			}
			fmt.Printf("Rolled back to %s: restored %d, removed %d\n", result.Target, result.Restored, result.Removed)
			if result.BackupID != "" {
				fmt.Printf("Pre-rollback backup: %s\n", result.BackupID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "Confirm the rollback")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the pre-rollback backup snapshot")
	return cmd
}
