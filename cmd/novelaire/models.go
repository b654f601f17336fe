package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelaire/novelaire/config"
)

func newModelsCmd(opts *globalOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Show the resolved model configuration",
		Long: `Show the model profiles and role assignments after layering the
global models.json under the project one. With --check, also verify
that every referenced credential resolves from the environment.
Credential values are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(opts)
			if err != nil {
				return err
			}
			defer app.close()

			models, err := config.NewLoader(app.logger).LoadModels(app.manager.ProjectRoot())
			if err != nil {
				return err
			}
			if err := models.Validate(); err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(models)
			}

			roles := []config.ModelRole{
				config.RoleDrafting,
				config.RoleOutlining,
				config.RoleGating,
				config.RoleSummary,
			}
			for _, role := range roles {
				profile, ok := models.ProfileForRole(role)
				if !ok {
					fmt.Printf("%-10s (unassigned)\n", role)
					continue
				}
				cred := "none"
				if profile.CredentialRef != nil {
					cred = fmt.Sprintf("%s:%s", profile.CredentialRef.Kind, profile.CredentialRef.Name)
					if check {
						if _, err := profile.CredentialRef.Resolve(); err != nil {
							cred += " (UNRESOLVED)"
						} else {
							cred += " (ok)"
						}
					}
				}
				fmt.Printf("%-10s %s/%s  credential: %s\n", role, profile.Provider, profile.Model, cred)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Verify credentials resolve from the environment")
	return cmd
}
