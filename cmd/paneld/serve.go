package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"panel-backend/internal/api"
	"panel-backend/internal/cache"
)

func newServeCmd() *cobra.Command {
	var noSchedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			respCache, err := cache.New(cfg.Cache)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a.notifier.Start(ctx)

			if !noSchedule {
				scheduler, err := a.scheduler()
				if err != nil {
					return err
				}
				go scheduler.Run(ctx)
			}

			handler := api.NewHandler(a.store, a.webpush, a.services)
			router := api.NewRouter(cfg, handler, a.services.Accounts, respCache)
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: router,
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Infof("HTTP server starting on port %d", cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-stop:
				log.Info("Shutdown signal received, stopping services...")
			case err := <-serveErr:
				return fmt.Errorf("HTTP server ListenAndServe: %w", err)
			}

			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server Shutdown: %w", err)
			}

			log.Info("Server gracefully stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "do not run analytics and coupon jobs in this process")
	return cmd
}
