package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact", "c"},
		Short:   "List contacts",
	}
	cmd.AddCommand(newContactsListCmd())
	return cmd
}

func newContactsListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List contacts",
		Example: strings.TrimSpace(`
  plenty contacts list --refine email=jane@example.com
  plenty contacts list --refine typeId=1 --refine countryId=1 -o json`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Contacts().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointContacts, listOptions{})
	return cmd
}
