package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/workflow"
)

func newPlanCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the session plan",
		Long: `The session plan tracks the steps of the current working session.
At most one step may be in progress at a time.`,
	}

	cmd.AddCommand(newPlanSetCmd(opts), newPlanShowCmd(opts))
	return cmd
}

func newPlanSetCmd(opts *globalOptions) *cobra.Command {
	var (
		steps       []string
		explanation string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the session plan",
		Long: `Replace the session plan. Each --step takes "status:description",
where status is pending, in_progress, or completed. A bare description
defaults to pending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			parsed := make([]workflow.PlanStep, 0, len(steps))
			for _, raw := range steps {
				parsed = append(parsed, parsePlanStep(raw))
			}
			if err := app.manager.SetPlan(parsed, explanation); err != nil {
				return err
			}

			fmt.Printf("Plan updated (%d steps)\n", len(parsed))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&steps, "step", nil, "Plan step as status:description (repeatable, in order)")
	cmd.Flags().StringVar(&explanation, "explanation", "", "Why the plan changed")
	_ = cmd.MarkFlagRequired("step")

	return cmd
}

func newPlanShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the session plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			plan, err := app.manager.Plan()
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(plan)
			}
			if len(plan.Steps) == 0 {
				fmt.Println("No plan set")
				return nil
			}
			for i, step := range plan.Steps {
				fmt.Printf("%d. [%s] %s\n", i+1, step.Status, step.Step)
			}
			if plan.Explanation != "" {
				fmt.Printf("\n%s\n", plan.Explanation)
			}
			return nil
		},
	}
}

// parsePlanStep splits "status:description"; a bare description is a
// pending step.
func parsePlanStep(raw string) workflow.PlanStep {
	status, desc, found := strings.Cut(raw, ":")
	if found && workflow.StepStatus(status).IsValid() {
		return workflow.PlanStep{Step: strings.TrimSpace(desc), Status: workflow.StepStatus(status)}
	}
	return workflow.PlanStep{Step: strings.TrimSpace(raw), Status: workflow.StepPending}
}
