package commands

import (
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/envpush/cmd/envpushctl/handlers"
)

// History returns the command that lists recent runs.
func History() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.History(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of runs (default: ENVPUSH_HISTORY_LIMIT)")

	return cmd
}
