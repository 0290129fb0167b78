package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
)

func newManufacturersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "manufacturers",
		Aliases: []string{"manufacturer", "mf"},
		Short:   "List manufacturers",
	}
	cmd.AddCommand(newManufacturersListCmd())
	return cmd
}

func newManufacturersListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List manufacturers",
		Example: strings.TrimSpace(`
  plenty manufacturers list --refine name=Acme
  plenty manufacturers list --since 2024-01-01 --with externals`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Manufacturers().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointManufacturers, listOptions{since: true})
	return cmd
}
