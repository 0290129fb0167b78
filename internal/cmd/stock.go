package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
)

func newStockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "List stock per warehouse or storage location",
	}
	cmd.AddCommand(newStockListCmd())
	cmd.AddCommand(newStockLocationsCmd())
	return cmd
}

func newStockListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the stock of all warehouses",
		Example: "  plenty stock list --refine variationId=3400",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Stock().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointStock, listOptions{})
	return cmd
}

func newStockLocationsCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "storage-locations <warehouse>",
		Aliases: []string{"locations"},
		Short:   "List stock per storage location of a warehouse",
		Long:    "List stock per storage location. The warehouse is given by ID or by (part of) its name.",
		Example: strings.TrimSpace(`
  plenty stock storage-locations 104
  plenty stock storage-locations "main warehouse" --refine variationId=3400`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				warehouseID, err := c.Warehouses().Resolve(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return c.Stock().StorageLocations(ctx, warehouseID, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointStorageLocations, listOptions{})
	return cmd
}

func newWarehousesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "warehouses",
		Aliases: []string{"warehouse", "wh"},
		Short:   "List warehouses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List warehouses",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Warehouses().List(ctx)
			})
		}),
	})
	return cmd
}
