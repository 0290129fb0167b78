package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/dryrun"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order", "o"},
		Short:   "List orders and book stock transactions",
	}
	cmd.AddCommand(newOrdersListCmd())
	cmd.AddCommand(newOrdersByDateCmd())
	cmd.AddCommand(newOrdersTransactionCmd())
	cmd.AddCommand(newOrdersBookCmd())
	return cmd
}

func newOrdersListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List orders",
		Example: strings.TrimSpace(`
  plenty orders list --refine orderType=1 --refine referrerId=4
  plenty orders list --refine orderIds=10,11 --with orderItems.variation -o json`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Orders().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointOrders, listOptions{})
	return cmd
}

func newOrdersByDateCmd() *cobra.Command {
	var (
		lf       listFlags
		start    string
		end      string
		dateType string
	)
	cmd := &cobra.Command{
		Use:   "by-date",
		Short: "List orders whose date lies in a range",
		Long: strings.TrimSpace(`
List all orders whose creation, change, payment or delivery date lies
between --start and --end (inclusive). Dates without an offset are read in
the configured time zone.`),
		Example: strings.TrimSpace(`
  plenty orders by-date --start 2024-03-01 --end 2024-03-31
  plenty orders by-date --start 2024-03-01T08:00 --end 2024-03-01T18:00 --date-type payment
  plenty orders by-date --start "7d ago" --end now`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dt, err := api.ParseDateType(dateType)
			if err != nil {
				return err
			}
			p, err := lf.params()
			if err != nil {
				return err
			}
			from, err := resolveDate(start)
			if err != nil {
				return err
			}
			to, err := resolveDate(end)
			if err != nil {
				return err
			}
			params := api.OrdersByDateParams{Start: from, End: to, DateType: dt, ListParams: p}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Orders().ByDate(ctx, params)
			})
		}),
	}
	cmd.Flags().StringVar(&start, "start", "", "Start of the range")
	cmd.Flags().StringVar(&end, "end", "", "End of the range")
	cmd.Flags().StringVar(&dateType, "date-type", string(api.DateCreation), "Date to filter on: creation|change|payment|delivery")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	registerStaticCompletions(cmd, "date-type", []string{"creation", "change", "payment", "delivery"})
	addListFlags(cmd, &lf, api.EndpointOrders, listOptions{})
	return cmd
}

func newOrdersTransactionCmd() *cobra.Command {
	var (
		quantity   int
		direction  string
		locationID int
		status     string
		userID     int
	)
	cmd := &cobra.Command{
		Use:   "transaction <order-item-id>",
		Short: "Create a stock transaction for an order item",
		Example: strings.TrimSpace(`
  plenty orders transaction 4711 --quantity 2 --direction out --location 11`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			itemID, err := parsePositiveID("order item ID", args[0])
			if err != nil {
				return err
			}
			t := api.Transaction{
				Quantity:            quantity,
				Direction:           strings.ToLower(direction),
				Status:              status,
				WarehouseLocationID: locationID,
				UserID:              userID,
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  fmt.Sprintf("transaction for order item %d", itemID),
				Requests: []dryrun.Request{{
					Method: "POST",
					Path:   fmt.Sprintf("/rest/orders/items/%d/transactions", itemID),
					Body:   t,
				}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Orders().CreateTransaction(ctx, itemID, t)
			})
		}),
	}
	cmd.Flags().IntVar(&quantity, "quantity", 0, "Quantity to move")
	cmd.Flags().StringVar(&direction, "direction", "", "Direction: in|out")
	cmd.Flags().IntVar(&locationID, "location", 0, "Storage location ID (0 is the standard location)")
	cmd.Flags().StringVar(&status, "status", "", "Transaction status (default regular)")
	cmd.Flags().IntVar(&userID, "user-id", 0, "Back office user booking the transaction")
	registerStaticCompletions(cmd, "direction", []string{"in", "out"})
	return cmd
}

func newOrdersBookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book <order-id>",
		Short: "Book the pending transactions of an order",
		Long:  "Book the pending stock transactions of an order. Booked stock changes cannot be undone.",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			orderID, err := parsePositiveID("order ID", args[0])
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/rest/orders/%d/booking", orderID)
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "book",
				Resource:  fmt.Sprintf("order %d", orderID),
				Requests:  []dryrun.Request{{Method: "PUT", Path: path}},
				Warnings:  []string{"Booked stock changes cannot be undone"},
			}); ok || err != nil {
				return err
			}
			confirmed, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Book order %d? Stock changes cannot be undone. (y/N): ", orderID),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !confirmed {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Orders().Book(ctx, orderID)
			})
		}),
	}
	return cmd
}
