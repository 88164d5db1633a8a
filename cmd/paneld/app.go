package main

import (
	"context"
	"fmt"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"

	"panel-backend/config"
	"panel-backend/internal/account"
	"panel-backend/internal/agent"
	"panel-backend/internal/analytics"
	"panel-backend/internal/api"
	"panel-backend/internal/approvals"
	"panel-backend/internal/coupons"
	"panel-backend/internal/db"
	"panel-backend/internal/deploy"
	"panel-backend/internal/notification"
	"panel-backend/internal/schedule"
	"panel-backend/internal/store"
	"panel-backend/internal/tickets"
)

// app wires the store, the node agent client and every domain service.
type app struct {
	cfg      *config.Config
	store    store.Store
	webpush  *webpush.Options
	notifier *notification.WorkerPool
	services api.Services
}

func newApp(cfg *config.Config) (*app, error) {
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		log.Warn("VAPID keys are not configured. Push notifications are disabled.")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	notifier := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
	agentClient := agent.NewClient(cfg.Agent)

	couponsSvc, err := coupons.NewService(appStore, cfg.App.Timezone)
	if err != nil {
		return nil, err
	}
	approvalsSvc := approvals.NewService(appStore, notifier)

	return &app{
		cfg:      cfg,
		store:    appStore,
		webpush:  webpushOptions,
		notifier: notifier,
		services: api.Services{
			Accounts:  account.NewService(appStore, approvalsSvc),
			Approvals: approvalsSvc,
			Analytics: analytics.NewService(cfg, appStore, agentClient, notifier),
			Coupons:   couponsSvc,
			Deploy:    deploy.NewService(appStore, agentClient),
			Tickets:   tickets.NewService(appStore),
		},
	}, nil
}

func (a *app) collector() schedule.Collector {
	return schedule.CollectorFunc(func(ctx context.Context) error {
		_, err := a.services.Analytics.CollectOnce(ctx)
		return err
	})
}

func (a *app) scheduler() (*schedule.Scheduler, error) {
	loc, err := time.LoadLocation(a.cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", a.cfg.App.Timezone, err)
	}
	s := schedule.New(loc)
	if err := schedule.Register(s, a.cfg, a.collector(), a.services.Coupons); err != nil {
		return nil, err
	}
	return s, nil
}
