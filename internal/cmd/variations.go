package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/dryrun"
)

func newVariationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "variations",
		Aliases: []string{"variation", "var"},
		Short:   "List, create and update variations",
	}
	cmd.AddCommand(newVariationsListCmd())
	cmd.AddCommand(newVariationsCreateCmd())
	cmd.AddCommand(newVariationsUpdateCmd())
	return cmd
}

func newVariationsListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List variations",
		Example: strings.TrimSpace(`
  plenty variations list --refine itemId=1200 --with variationBarcodes,stock
  plenty variations list --refine sku=ABC-1 --format tabular`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Variations().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointVariations, listOptions{lang: true})
	return cmd
}

func newVariationsCreateCmd() *cobra.Command {
	var vf variationFlags
	cmd := &cobra.Command{
		Use:   "create <item-id>",
		Short: "Add a variation to an item",
		Example: strings.TrimSpace(`
  plenty variations create 1200 --number S-RED --category 12 --unit 1 --content 1 --attribute 3:17`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			itemID, err := parsePositiveID("item ID", args[0])
			if err != nil {
				return err
			}
			v, err := vf.variation(cmd)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  fmt.Sprintf("variation of item %d", itemID),
				Requests:  []dryrun.Request{{Method: "POST", Path: fmt.Sprintf("/rest/items/%d/variations", itemID), Body: v}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Variations().Create(ctx, itemID, v)
			})
		}),
	}
	vf.register(cmd)
	return cmd
}

func newVariationsUpdateCmd() *cobra.Command {
	var ff fieldFlags
	cmd := &cobra.Command{
		Use:   "update <item-id> <variation-id>",
		Short: "Update fields of a variation",
		Example: strings.TrimSpace(`
  plenty variations update 1200 3400 --set isActive=true --set purchasePrice=4.5`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			itemID, err := parsePositiveID("item ID", args[0])
			if err != nil {
				return err
			}
			variationID, err := parsePositiveID("variation ID", args[1])
			if err != nil {
				return err
			}
			fields, err := ff.fields(cmd)
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/rest/items/%d/variations/%d", itemID, variationID)
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  fmt.Sprintf("variation %d", variationID),
				Requests:  []dryrun.Request{{Method: "PUT", Path: path, Body: fields}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Variations().Update(ctx, itemID, variationID, fields)
			})
		}),
	}
	ff.register(cmd)
	return cmd
}
