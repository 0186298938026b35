package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/envpush/cmd/envpushctl/handlers"
)

// Apply returns the command that provisions the items of a manifest.
func Apply() *cobra.Command {
	var manifestPath string
	var token string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the items listed in a manifest",
		Long: `Apply a YAML manifest to a GitHub deployment environment.

Manifest format:

  owner: acme
  repo: app
  environment: production
  kind: secrets        # or variables (default)
  items:
    API_KEY: abc123

The token comes from --token or the GITHUB_TOKEN environment variable.
Each result line is printed as soon as it happens. The command exits
non-zero when the run fails or any item reports an error.
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = os.Getenv("GITHUB_TOKEN")
			}
			return handlers.Apply(cmd.Context(), cmd.OutOrStdout(), handlers.ApplyOptions{
				ManifestPath: manifestPath,
				Token:        token,
				SaveHistory:  !noHistory,
			})
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "file", "f", "", "Path to the manifest file")
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default: $GITHUB_TOKEN)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run in the history database")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
