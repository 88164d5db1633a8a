package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"panel-backend/config"
	"panel-backend/internal/agent"
	"panel-backend/internal/metrics"
	"panel-backend/internal/model"
	"panel-backend/internal/notification"
	"panel-backend/internal/store"
)

// DetailsFetcher returns the live state of a server from its node.
type DetailsFetcher interface {
	GetDetails(ctx context.Context, node model.Node, serverUUID string) (*agent.Details, error)
}

// Notifier queues a notification for delivery.
type Notifier interface {
	Dispatch(job notification.Job) bool
}

// Result counts the outcome of one collection pass.
type Result struct {
	Recorded int
	Offline  int
	Failed   int
}

// Service polls every server's node agent and stores utilization samples.
type Service struct {
	cfg      config.AnalyticsConfig
	workers  int
	store    store.Store
	agent    DetailsFetcher
	notifier Notifier
}

// NewService creates the collector. notifier may be nil to disable usage alerts.
func NewService(cfg *config.Config, s store.Store, fetcher DetailsFetcher, notifier Notifier) *Service {
	workers := cfg.WorkerPool.Size
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		cfg:      cfg.Analytics,
		workers:  workers,
		store:    s,
		agent:    fetcher,
		notifier: notifier,
	}
}

// Run collects on a fixed interval until ctx is cancelled. It is used when
// the cron scheduler is not.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.IsEnabled() {
		log.Info("Analytics collection is disabled. Not starting.")
		return
	}
	log.WithField("interval", s.cfg.Interval).Info("Starting analytics collector...")

	s.runOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Analytics collector shutting down.")
			return
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	if _, err := s.CollectOnce(ctx); err != nil && ctx.Err() == nil {
		log.Errorf("Analytics collection failed: %v", err)
	}
}

// CollectOnce samples every server once. Individual server failures are
// logged and counted; only failing to list the servers is returned.
func (s *Service) CollectOnce(ctx context.Context) (Result, error) {
	servers, err := s.store.ListServers(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list servers: %w", err)
	}
	log.WithField("servers", len(servers)).Info("Collecting server analytics")

	jobs := make(chan model.Server)
	var (
		mu     sync.Mutex
		result Result
		wg     sync.WaitGroup
	)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for server := range jobs {
				outcome := s.collectServer(ctx, server)
				metrics.AnalyticsSamples.WithLabelValues(outcome).Inc()

				mu.Lock()
				switch outcome {
				case outcomeRecorded:
					result.Recorded++
				case outcomeOffline:
					result.Offline++
				default:
					result.Failed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, server := range servers {
		select {
		case jobs <- server:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	log.WithFields(log.Fields{
		"recorded": result.Recorded,
		"offline":  result.Offline,
		"failed":   result.Failed,
	}).Info("Analytics collection finished")
	return result, ctx.Err()
}

const (
	outcomeRecorded = "recorded"
	outcomeOffline  = "offline"
	outcomeFailed   = "failed"
)

func (s *Service) collectServer(ctx context.Context, server model.Server) string {
	logger := log.WithField("server_id", server.ID)

	details, err := s.agent.GetDetails(ctx, server.Node, server.UUID)
	if err != nil {
		logger.Errorf("Failed to fetch details from node %d: %v", server.NodeID, err)
		return outcomeFailed
	}

	if details.State == agent.StateOffline {
		logger.Debug("Server is offline, skipping")
		return outcomeOffline
	}
	logger.Debug("Server is being processed")

	sample := Compute(server, details.Utilization)
	if err := s.store.RecordAnalytics(ctx, &sample, s.cfg.MaxEntries); err != nil {
		logger.Errorf("Failed to write stats: %v", err)
		return outcomeFailed
	}

	s.alert(server, sample)
	return outcomeRecorded
}

// Compute converts raw utilization into percentages of the server's limits.
// A zero limit means unlimited and yields zero for that resource.
func Compute(server model.Server, u agent.Utilization) model.AnalyticsData {
	sample := model.AnalyticsData{ServerID: server.ID}
	if server.CPU > 0 {
		sample.CPU = u.CPUAbsolute / (float64(server.CPU) / 100)
	}
	// Memory and disk limits are MiB; usage arrives in bytes.
	if server.Memory > 0 {
		sample.Memory = (float64(u.MemoryBytes) / 1024) / float64(server.Memory) / 10
	}
	if server.Disk > 0 {
		sample.Disk = (float64(u.DiskBytes) / 1024) / float64(server.Disk) / 10
	}
	return sample
}

func (s *Service) alert(server model.Server, sample model.AnalyticsData) {
	if s.notifier == nil || s.cfg.AlertThreshold <= 0 {
		return
	}

	usage := []struct {
		resource string
		value    float64
	}{
		{"cpu", sample.CPU},
		{"memory", sample.Memory},
		{"disk", sample.Disk},
	}
	for _, u := range usage {
		if u.value < s.cfg.AlertThreshold {
			continue
		}
		s.notifier.Dispatch(notification.Job{
			UserID:  server.OwnerID,
			Message: fmt.Sprintf("Server %s %s usage is at %.0f%%.", server.UUIDShort, u.resource, u.value),
		})
	}
}
