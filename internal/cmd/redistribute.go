package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/dryrun"
)

func newRedistributeCmd() *cobra.Command {
	var bookOut bool
	cmd := &cobra.Command{
		Use:     "redistribute <template>",
		Aliases: []string{"redistribution"},
		Short:   "Move stock between warehouses from a template",
		Long: strings.TrimSpace(`
Create a redistribution order from a JSON or YAML template, then post one
outgoing transaction per source location and one incoming transaction per
target location.

With --book-out the order is dated and booked afterwards. Booked stock
changes cannot be undone.

Template:

  sender: 104
  receiver: 105
  plenty_id: 41614        # optional
  variations:
    - variation_id: 3400
      total_quantity: 5
      name: Shirt S red   # optional
      locations:
        - location_id: 11
          quantity: 5
          targets:
            - location_id: 21
              quantity: 5`),
		Example: strings.TrimSpace(`
  plenty redistribute move.yaml --dry-run
  plenty redistribute move.yaml --book-out --yes`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			tmpl, err := api.LoadTemplate(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			if location != nil {
				now = now.In(location)
			}
			plan, err := api.BuildRedistribution(*tmpl, bookOut, now)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, redistributionPreview(plan)); ok || err != nil {
				return err
			}
			if bookOut {
				confirmed, err := confirmAction(cmd, confirmOptions{
					Prompt: fmt.Sprintf("Move stock from warehouse %d to %d and book it? Booked stock changes cannot be undone. (y/N): ",
						tmpl.Sender, tmpl.Receiver),
					CancelMessage: "Cancelled.",
				})
				if err != nil || !confirmed {
					return err
				}
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Redistributions().Create(ctx, *tmpl, bookOut)
			})
		}),
	}
	cmd.Flags().BoolVar(&bookOut, "book-out", false, "Book the order after creating the transactions (irreversible)")
	return cmd
}

// redistributionPreview lists the requests a redistribution sends. Order
// item IDs are only known once the order exists.
func redistributionPreview(plan *api.RedistributionPlan) *dryrun.Preview {
	p := &dryrun.Preview{
		Operation: "create",
		Resource:  fmt.Sprintf("redistribution with %d order items", len(plan.Order.OrderItems)),
		Requests:  []dryrun.Request{{Method: "POST", Path: "/rest/redistributions", Body: plan.Order}},
	}
	for _, pt := range append(plan.Outgoing(), plan.Incoming()...) {
		p.Requests = append(p.Requests, dryrun.Request{
			Method: "POST",
			Path:   fmt.Sprintf("/rest/orders/items/{item of variation %d}/transactions", pt.VariationID),
			Body:   pt.Transaction,
		})
	}
	if plan.BookOut {
		p.Requests = append(p.Requests, dryrun.Request{Method: "PUT", Path: "/rest/orders/{order}/booking"})
		p.Warnings = append(p.Warnings, "Booked stock changes cannot be undone")
	}
	return p
}
