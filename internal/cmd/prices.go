package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
)

func newPricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prices",
		Aliases: []string{"price"},
		Short:   "List sales price configurations",
	}
	cmd.AddCommand(newPricesListCmd())
	return cmd
}

func newPricesListCmd() *cobra.Command {
	var (
		since   string
		minimal bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sales price configurations",
		Long: strings.TrimSpace(`
List sales price configurations. With --minimal every configuration is
reduced to its ID, type, position, names and the IDs of linked referrers,
accounts, clients, countries, currencies and customer classes.`),
		Example: "  plenty prices list --minimal -o json",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			lastUpdate, err := resolveDate(since)
			if err != nil {
				return err
			}
			p := api.PriceParams{LastUpdate: lastUpdate, Minimal: minimal}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Prices().Configurations(ctx, p)
			})
		}),
	}
	cmd.Flags().StringVar(&since, "since", "", "Only configurations changed since this date (YYYY-MM-DD[THH:MM])")
	cmd.Flags().BoolVar(&minimal, "minimal", false, "Reduce configurations to IDs and names")
	return cmd
}
