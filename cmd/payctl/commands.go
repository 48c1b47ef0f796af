package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"judokit/internal/adapters/storage/redis"
	"judokit/internal/core/domain"
)

func (c *cli) receiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipt [receiptId]",
		Short: "Fetch a single receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			outcome, err := c.checkout.Receipt(ctx, args[0])
			if err != nil {
				return c.fail(err)
			}
			printOutcome(os.Stdout, outcome)
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	page := domain.DefaultPagination()
	var sort, typeName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List receipts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			page.Sort = domain.Sort(sort)

			ctx, cancel := c.context()
			defer cancel()

			var outcome domain.Outcome
			var err error
			if typeName == "" {
				outcome, err = c.checkout.ListReceipts(ctx, page)
			} else {
				var typ domain.TransactionType
				if typ, err = domain.ParseTransactionType(typeName); err == nil {
					outcome, err = c.checkout.ListTransactions(ctx, typ, page)
				}
			}
			if err != nil {
				return c.fail(err)
			}
			printOutcome(os.Stdout, outcome)
			return nil
		},
	}
	cmd.Flags().IntVar(&page.PageSize, "page-size", domain.DefaultPageSize, "number of receipts per page")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "number of receipts to skip")
	cmd.Flags().StringVar(&sort, "sort", string(domain.SortTimeDescending), "time-descending or time-ascending")
	cmd.Flags().StringVar(&typeName, "type", "", "list only payment, preauth or registercard transactions")
	return cmd
}

// progressionCmd builds collect, refund and void, which share one shape.
func (c *cli) progressionCmd(typ domain.TransactionType, use, short string) *cobra.Command {
	var currency, reference string

	cmd := &cobra.Command{
		Use:   use + " [receiptId] [amount]",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			outcome, err := c.checkout.Process(ctx, domain.CheckoutRequest{
				Type:             typ.String(),
				ReceiptID:        args[0],
				Amount:           json.Number(args[1]),
				Currency:         currency,
				PaymentReference: reference,
			})
			if err != nil {
				return c.fail(err)
			}
			printOutcome(os.Stdout, outcome)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", domain.DefaultCurrency, "ISO 4217 currency code")
	cmd.Flags().StringVar(&reference, "reference", "", "payment reference; generated when empty")
	return cmd
}

func (c *cli) releaseReferenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release-reference [paymentReference]",
		Short: "Allow a guarded payment reference to be used again",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if c.cfg.Redis.Addr == "" {
				return c.fail(fmt.Errorf("redis.addr is not configured"))
			}

			ctx, cancel := c.context()
			defer cancel()

			rdb, err := redis.NewClient(ctx, c.cfg.Redis.Addr)
			if err != nil {
				return c.fail(err)
			}
			defer rdb.Close()

			if err := redis.NewReferenceGuard(rdb, c.cfg.ReferenceGuard.TTL).Release(ctx, args[0]); err != nil {
				return c.fail(err)
			}
			printOK(os.Stdout, "released "+args[0])
			return nil
		},
	}
}
