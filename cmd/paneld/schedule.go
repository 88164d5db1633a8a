package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"panel-backend/config"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a scheduled job by hand",
	}
	cmd.AddCommand(newScheduleAnalyticsCmd(), newScheduleCouponsCmd())
	return cmd
}

func newScheduleAnalyticsCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Collect one round of server usage samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if watch {
				cfg.Analytics.Enabled = config.Bool(true)
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a.notifier.Start(ctx)

			if watch {
				a.services.Analytics.Run(ctx)
				return nil
			}

			result, err := a.services.Analytics.CollectOnce(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Recorded %d samples, skipped %d offline servers, %d failed.\n",
				result.Recorded, result.Offline, result.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep collecting every analytics.interval_seconds")
	return cmd
}

func newScheduleCouponsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coupons",
		Short: "Mark coupons past their expiry time as expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			ids, err := a.services.Coupons.ExpireAll(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			log.WithField("count", len(ids)).Info("Coupon expiry finished")
			cmd.Printf("Expired %d coupons.\n", len(ids))
			return nil
		},
	}
}
