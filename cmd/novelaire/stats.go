package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/project"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var maxChars int

	cmd := &cobra.Command{
		Use:   "stats <path>",
		Short: "Compute writing statistics for a project file",
		Long: `Compute writing statistics for a UTF-8 text file under the project
root: character, Han, punctuation, letter, and English word counts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			stats, err := project.NewReader(app.manager).TextStats(args[0], maxChars)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(stats)
			}
			fmt.Printf("%s%s\n", stats.Path, truncatedSuffix(stats.Truncated))
			fmt.Printf("  chars:       %d\n", stats.Chars)
			fmt.Printf("  lines:       %d\n", stats.Lines)
			fmt.Printf("  words:       %d\n", stats.Words)
			fmt.Printf("  letters:     %d\n", stats.Letters)
			fmt.Printf("  han:         %d\n", stats.Han)
			fmt.Printf("  punctuation: %d\n", stats.Punctuation)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Analyze at most this many characters (0 = whole file)")
	return cmd
}

func truncatedSuffix(truncated bool) string {
	if truncated {
		return " (truncated)"
	}
	return ""
}
