package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/project"
)

func newReadCmd(opts *globalOptions) *cobra.Command {
	var (
		maxChars      int
		maxTotalChars int
	)

	cmd := &cobra.Command{
		Use:   "read <path>...",
		Short: "Print project files with bounded output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			reader := project.NewReader(app.manager)

			if len(args) == 1 {
				text, err := reader.ReadText(args[0], maxChars)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(text)
				}
				fmt.Print(text.Content)
				if text.Truncated {
					fmt.Println("\n[truncated]")
				}
				return nil
			}

			results, totalTruncated := reader.ReadTextMany(args, maxChars, maxTotalChars)
			if opts.jsonOutput {
				return printJSON(results)
			}
			for _, r := range results {
				fmt.Printf("==> %s <==\n", r.Path)
				if r.Err != "" {
					fmt.Printf("error: %s\n\n", r.Err)
					continue
				}
				fmt.Print(r.Content)
				if r.Truncated {
					fmt.Println("\n[truncated]")
				}
				fmt.Println()
			}
			if totalTruncated {
				fmt.Println("[output budget exhausted]")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Maximum characters per file (0 = default)")
	cmd.Flags().IntVar(&maxTotalChars, "max-total-chars", 0, "Maximum characters across all files (0 = default)")
	return cmd
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		globs      []string
		maxResults int
		ignoreCase bool
	)

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search project files for a regular expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			matches, truncated, err := project.NewReader(app.manager).SearchText(args[0], project.SearchOptions{
				Globs:      globs,
				MaxResults: maxResults,
				IgnoreCase: ignoreCase,
			})
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(matches)
			}
			for _, m := range matches {
				fmt.Printf("%s:%d: %s\n", m.Path, m.Line, m.Text)
			}
			if truncated {
				fmt.Println("[more matches omitted]")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&globs, "glob", nil, "Restrict search to matching files (repeatable)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Maximum matches (0 = default)")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Case-insensitive search")
	return cmd
}
