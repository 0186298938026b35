// Package commands defines the envpushctl command tree and flag bindings.
// Execution is delegated to the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the envpushctl CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "envpushctl",
		Short:         "Push GitHub Actions secrets and variables into a deployment environment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Apply())
	cmd.AddCommand(History())

	return cmd
}
