package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"judokit/internal/core/domain"
)

// check describes one diagnostic check.
type check struct {
	Name     string
	Func     func(ctx context.Context) error
	Skipped  bool
	Error    error
	Duration time.Duration
}

var errNotConfigured = errors.New("not configured")

func (c *cli) doctorCmd() *cobra.Command {
	var relayURL string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the gateway and every configured dependency",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := c.context()
			defer cancel()

			checks := c.checks(relayURL)
			runChecks(ctx, checks)
			if !report(os.Stdout, checks) {
				return errors.New("payctl: diagnostics found problems")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&relayURL, "relay", "", "relay base URL to probe, e.g. http://localhost:8080")
	return cmd
}

func (c *cli) checks(relayURL string) []check {
	cfg := c.cfg
	return []check{
		{Name: "Gateway credentials", Func: func(context.Context) error {
			if !c.session.HasCredentials() {
				return errNotConfigured
			}
			return nil
		}},
		{Name: "Gateway API", Func: func(ctx context.Context) error {
			page := domain.Pagination{PageSize: 1, Sort: domain.SortTimeDescending}
			_, err := c.checkout.ListReceipts(ctx, page)
			return err
		}},
		{Name: "PostgreSQL", Func: func(ctx context.Context) error {
			if cfg.Postgres.DSN == "" {
				return errNotConfigured
			}
			return checkPostgres(ctx, cfg.Postgres.DSN)
		}},
		{Name: "Redis", Func: func(ctx context.Context) error {
			if cfg.Redis.Addr == "" {
				return errNotConfigured
			}
			return checkRedis(ctx, cfg.Redis.Addr)
		}},
		{Name: "Kafka", Func: func(ctx context.Context) error {
			brokers := cfg.KafkaBrokers()
			if len(brokers) == 0 {
				return errNotConfigured
			}
			return checkKafka(ctx, brokers)
		}},
		{Name: "Device signal", Func: func(ctx context.Context) error {
			if cfg.DeviceSignal.URL == "" {
				return errNotConfigured
			}
			return checkHTTP(ctx, cfg.DeviceSignal.URL)
		}},
		{Name: "Relay", Func: func(ctx context.Context) error {
			if relayURL == "" {
				return errNotConfigured
			}
			return checkHTTP(ctx, relayURL+"/health")
		}},
	}
}

func runChecks(ctx context.Context, checks []check) {
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(ch *check) {
			defer wg.Done()
			start := time.Now()
			err := ch.Func(ctx)
			ch.Duration = time.Since(start)
			if errors.Is(err, errNotConfigured) {
				ch.Skipped = true
				return
			}
			ch.Error = err
		}(&checks[i])
	}
	wg.Wait()
}

// report prints one line per check and reports whether all of them passed.
func report(w io.Writer, checks []check) bool {
	ok := true
	for _, ch := range checks {
		d := ch.Duration.Round(time.Millisecond)
		switch {
		case ch.Skipped:
			dimColor.Fprintf(w, "[SKIP] %-20s not configured\n", ch.Name)
		case ch.Error != nil:
			ok = false
			declinedColor.Fprintf(w, "[FAIL] %-20s (%v) %v\n", ch.Name, d, ch.Error)
		default:
			okColor.Fprintf(w, "[ OK ] %-20s (%v)\n", ch.Name, d)
		}
	}
	return ok
}

func checkHTTP(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func checkPostgres(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}

func checkRedis(ctx context.Context, addr string) error {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	return rdb.Ping(ctx).Err()
}

func checkKafka(ctx context.Context, brokers []string) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DialTimeout(5*time.Second),
	)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Ping(ctx)
}
