package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/events"
	"github.com/novelaire/novelaire/workflow"
)

func newModeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Manage the authoring mode",
		Long: `The authoring mode gates which artifact directories are writable:
brainstorm -> spec-finalize -> outline -> fine-outline -> prose.
Forward transitions advance one step at a time; regression to any
earlier mode is always allowed.`,
	}

	cmd.AddCommand(newModeSetCmd(opts), newModeShowCmd(opts))
	return cmd
}

func newModeSetCmd(opts *globalOptions) *cobra.Command {
	var override bool
	var reason string

	cmd := &cobra.Command{
		Use:   "set <mode>",
		Short: "Transition to another authoring mode",
		Long: `Transition to another authoring mode. A forward transition is
refused while the guarding gate's latest report is FAIL; pass
--override with --reason to proceed anyway, recording the decision.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			target := workflow.Mode(args[0])
			if override {
				err = app.manager.OverrideMode(target, reason)
			} else {
				err = app.manager.SetMode(target)
			}
			if err != nil {
				return err
			}

			app.publisher.Publish(events.SubjectModeChanged, map[string]string{
				"mode": target.String(),
			})

			fmt.Printf("Mode set to %s\n", target)
			if override {
				fmt.Println("Override decision recorded.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&override, "override", false, "Proceed past a failing gate, recording a decision")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the failing gate is being overridden (required with --override)")
	return cmd
}

func newModeShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current authoring mode",
		Args:  cobra.NoArgs,
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

			if opts.jsonOutput {
				return printJSON(map[string]string{"mode": mode.String()})
			}
			fmt.Println(mode)
			return nil
		},
	}
}
