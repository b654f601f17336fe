package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/ingest"
)

func newRefsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs",
		Short: "Manage reference material",
	}

	cmd.AddCommand(newRefsImportCmd(opts))
	return cmd
}

func newRefsImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>...",
		Short: "Import web pages as reference markdown",
		Long: `Fetch one or more HTTPS URLs, extract the readable article, and
store each as markdown under refs/. Fetches are SSRF-guarded: private
addresses, localhost, and non-HTTPS URLs are rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			fetcher := ingest.NewFetcher(
				app.cfg.Ingest.Timeout,
				app.cfg.Ingest.UserAgent,
				app.cfg.Ingest.MaxContentSize,
			)
			importer := ingest.NewImporter(app.manager, fetcher, app.logger)

			var failures int
			for _, rawURL := range args {
				result, err := importer.Import(cmd.Context(), rawURL)
				if err != nil {
					failures++
					fmt.Printf("FAILED %s: %v\n", rawURL, err)
					continue
				}
				fmt.Printf("Imported %s -> %s\n", result.URL, result.RelPath)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d import(s) failed", failures, len(args))
			}
			return nil
		},
	}
}
