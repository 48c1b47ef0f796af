package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"judokit/internal/adapters/messaging/kafka"
)

func (c *cli) outcomesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "outcomes",
		Short: "Show the latest transaction outcomes published to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			brokers := c.cfg.KafkaBrokers()
			if len(brokers) == 0 {
				return c.fail(errors.New("kafka.bootstrap_servers is not configured"))
			}

			client, err := kgo.NewClient(
				kgo.SeedBrokers(brokers...),
				kgo.ConsumeTopics(c.cfg.Kafka.Topic),
				kgo.FetchMaxWait(5*time.Second),
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			)
			if err != nil {
				return c.fail(err)
			}
			defer client.Close()

			ctx, cancel := c.context()
			defer cancel()

			printOutcomes(ctx, os.Stdout, client, limit)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of outcomes to show")
	return cmd
}

type fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
}

func printOutcomes(ctx context.Context, w io.Writer, client fetcher, limit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tREFERENCE\tTYPE\tSTATUS\tAMOUNT\tRECEIPT")

	count := 0
	for count < limit {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil || len(fetches.Records()) == 0 {
			break
		}
		fetches.EachRecord(func(r *kgo.Record) {
			if count >= limit {
				return
			}
			count++
			msg, err := kafka.DecodeOutcome(r.Value)
			if err != nil {
				fmt.Fprintf(tw, "%d\t%s\t-\t%s\t-\t-\n", r.Offset, r.Key, declinedColor.Sprint("UNREADABLE"))
				return
			}
			status := declinedColor.Sprint(msg.Status)
			if msg.Status == "SUCCEEDED" {
				status = okColor.Sprint(msg.Status)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\t%s\n",
				r.Offset, msg.PaymentReference, msg.Type, status, msg.Amount, msg.Currency, msg.ReceiptID)
		})
	}
	tw.Flush()
}
