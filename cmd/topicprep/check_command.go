package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/kafka"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/redis"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the configured store, token cache and event brokers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checker := backendChecker(cfg, timeout)
			report := checker.Run(cmd.Context())
			if len(report.Components) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backends configured")
				return nil
			}

			rows := make([][]string, 0, len(report.Components))
			for _, name := range report.Names() {
				c := report.Components[name]
				rows = append(rows, []string{name, string(c.Status), c.Latency.String(), c.Message})
			}
			writeTable(cmd.OutOrStdout(), []string{"Backend", "Status", "Latency", "Message"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
			if report.Status != health.StatusUp {
				return apperrors.New(apperrors.ErrUnavailable, apperrors.ExitFailure, "one or more backends are down")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Per-backend probe timeout")
	return cmd
}

func backendChecker(cfg *config.Config, timeout time.Duration) *health.Checker {
	checker := health.NewChecker(timeout)
	if cfg.Store.Enabled() {
		checker.Register("store/"+cfg.Store.Driver, health.Ping(func(ctx context.Context) error {
			s, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			return s.Close()
		}))
	}
	if cfg.Redis.Addr != "" {
		checker.Register("redis", health.Ping(func(ctx context.Context) error {
			c, err := pkgredis.NewClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			return c.Close()
		}))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		checker.Register("kafka", health.Ping(func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		}))
	}
	return checker
}
