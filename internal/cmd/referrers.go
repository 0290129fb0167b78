package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
)

func newReferrersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "referrers",
		Aliases: []string{"referrer", "ref"},
		Short:   "List order referrers",
	}
	cmd.AddCommand(newReferrersListCmd())
	return cmd
}

func newReferrersListCmd() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List order referrers",
		Example: strings.TrimSpace(`
  plenty referrers list
  plenty referrers list --column name`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Referrers().List(ctx, column)
			})
		}),
	}
	cmd.Flags().StringVar(&column, "column", "", "Reduce every referrer to one field ("+strings.Join(api.ReferrerColumns, "|")+")")
	registerStaticCompletions(cmd, "column", api.ReferrerColumns)
	return cmd
}
