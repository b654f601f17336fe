package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/events"
	"github.com/novelaire/novelaire/gate"
)

func newGateCmd(opts *globalOptions) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "gate <type>",
		Short: "Run a quality gate",
		Long: `Run one quality gate and print its report. Structural gates:
spec, outline, fine-outline, chapter, consistency, regression,
forgotten-elements. Every spec domain (premise, world, characters, ...)
is also a gate that checks the confirmed entries of that domain.

A gate with any fail finding blocks phase advancement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			gateType, err := gate.ParseType(args[0])
			if err != nil {
				return err
			}

			report, err := app.engine.Run(gateType, target)
			if err != nil {
				return err
			}

			app.publisher.Publish(events.SubjectGateCompleted, map[string]string{
				"gate":   string(report.Gate),
				"result": string(report.Result),
			})

			if opts.jsonOutput {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printReport(report)
			}

			if report.Blocked() {
				return fmt.Errorf("gate %s failed", report.Gate)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Scope the gate (a chapter path, or a domain for the spec gate)")
	return cmd
}

// printReport renders a gate report for the terminal.
func printReport(report *gate.Report) {
	header := fmt.Sprintf("%s: %s", report.Gate, report.Result)
	if report.Target != "" {
		header = fmt.Sprintf("%s (%s): %s", report.Gate, report.Target, report.Result)
	}
	fmt.Println(header)
	fmt.Println(strings.Repeat("-", len(header)))

	if len(report.Findings) == 0 {
		fmt.Println("No findings.")
	}
	for _, f := range report.Findings {
		fmt.Printf("[%s] %s: %s\n", f.Severity, f.Location, f.Problem)
		if f.SuggestedFix != "" {
			fmt.Printf("        fix: %s\n", f.SuggestedFix)
		}
	}
	fmt.Printf("\nNext: %s\n", report.NextStep)
}
