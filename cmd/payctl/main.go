package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"judokit/internal/adapters/gateway"
	"judokit/internal/app"
	"judokit/internal/config"
	"judokit/internal/core/domain"
	"judokit/internal/observability"
)

// cli holds what every subcommand needs once the config is loaded.
type cli struct {
	configPath string
	timeout    time.Duration

	cfg      *config.Config
	logger   *slog.Logger
	session  *gateway.Session
	client   *app.Client
	checkout *app.Checkout
}

func main() {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:          "payctl",
		Short:        "Operate on judo transactions from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.client != nil {
				c.client.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "configs/config.yaml", "path to the config file")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", time.Minute, "overall command timeout")

	rootCmd.AddCommand(
		c.receiptCmd(),
		c.listCmd(),
		c.progressionCmd(domain.TypeCollection, "collect", "Collect a pre-authorisation"),
		c.progressionCmd(domain.TypeRefund, "refund", "Refund a payment or collection"),
		c.progressionCmd(domain.TypeVoid, "void", "Void a pre-authorisation"),
		c.releaseReferenceCmd(),
		c.outcomesCmd(),
		c.doctorCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (c *cli) init() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = observability.SetupLogger(cfg.App.Env)

	refs, err := app.NewReferenceGenerator(cfg.Reference.Strategy, cfg.Reference.DeviceID, cfg.Reference.TrimSuffix)
	if err != nil {
		return err
	}

	c.session = gateway.NewSessionFromConfig(cfg.Gateway, c.logger)
	c.client = app.NewClient(c.session,
		app.WithLogger(c.logger),
		app.WithReferenceGenerator(refs),
		app.WithReferenceMaxLength(cfg.Reference.MaxLength),
	)
	c.checkout = app.NewCheckout(c.client, c.logger)
	return nil
}

func (c *cli) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *cli) fail(err error) error {
	printError(os.Stderr, err)
	return fmt.Errorf("payctl: %w", err)
}
