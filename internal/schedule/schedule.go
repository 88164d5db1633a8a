// Package schedule runs the panel's periodic jobs on cron expressions.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"panel-backend/config"
)

// JobFunc is a unit of scheduled work.
type JobFunc func(ctx context.Context) error

// Scheduler wraps a cron runner. Jobs never overlap with themselves and a
// panicking job does not take the process down.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating expressions in loc.
func New(loc *time.Location) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under a standard five field expression or a descriptor
// such as "@every 15m".
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		logger := log.WithField("job", name)
		if err := fn(s.ctx); err != nil && s.ctx.Err() == nil {
			logger.Errorf("Scheduled job failed: %v", err)
			return
		}
		logger.WithField("took", time.Since(start)).Debug("Scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	log.WithFields(log.Fields{"job": name, "schedule": spec}).Info("Scheduled job registered")
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is cancelled. Running jobs
// see their context cancelled and are waited for.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	log.Info("Scheduler shutting down.")
	s.cancel()
	<-s.cron.Stop().Done()
}

// Collector is the analytics pass run by the scheduler.
type Collector interface {
	CollectOnce(ctx context.Context) error
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context) error

func (f CollectorFunc) CollectOnce(ctx context.Context) error { return f(ctx) }

// Expirer flags coupons whose expiry time has passed.
type Expirer interface {
	ExpireAll(ctx context.Context, now time.Time) ([]int64, error)
}

// Register adds the analytics and coupon jobs enabled in cfg.
func Register(s *Scheduler, cfg *config.Config, collector Collector, expirer Expirer) error {
	if cfg.Analytics.IsEnabled() {
		if err := s.Add("analytics", cfg.Analytics.Schedule, collector.CollectOnce); err != nil {
			return err
		}
	}
	if cfg.Coupons.IsEnabled() {
		err := s.Add("coupons", cfg.Coupons.Schedule, func(ctx context.Context) error {
			_, err := expirer.ExpireAll(ctx, time.Now().UTC())
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
