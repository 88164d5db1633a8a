package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"

	"panel-backend/internal/metrics"
	"panel-backend/internal/model"
	"panel-backend/internal/store"
)

// Job is a single notification. It is pushed to every browser subscription
// of UserID when UserID is set, and posted to Webhook when Webhook is set.
type Job struct {
	UserID  int64
	Webhook string
	Message string
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	client  *http.Client
}

// NewWorkerPool creates a new worker pool. Push delivery is skipped when
// webpushOptions is nil or has no keys.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*16),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debugf("Notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.process(ctx, job)
		case <-ctx.Done():
			log.Debugf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job. It never blocks: when the queue is full the job is
// dropped and false is returned.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		log.WithField("user_id", job.UserID).Warn("Notification queue is full, dropping notification")
		return false
	}
}

func (wp *WorkerPool) process(ctx context.Context, job Job) {
	if job.Webhook != "" {
		wp.postWebhook(ctx, job.Webhook, job.Message)
	}
	if job.UserID != 0 {
		wp.pushToUser(ctx, job.UserID, []byte(job.Message))
	}
}

func (wp *WorkerPool) pushToUser(ctx context.Context, userID int64, payload []byte) {
	if wp.webpush == nil || wp.webpush.VAPIDPublicKey == "" || wp.webpush.VAPIDPrivateKey == "" {
		log.WithField("user_id", userID).Debug("Web push is not configured, skipping notification")
		return
	}

	subscriptions, err := wp.store.PushSubscriptionsForUser(ctx, userID)
	if err != nil {
		log.WithField("user_id", userID).Errorf("Error fetching subscriptions: %v", err)
		return
	}

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		metrics.Notifications.WithLabelValues("push", "failed").Inc()
		log.WithField("endpoint", sub.Endpoint).Errorf("Error sending notification: %v", err)
		return
	}
	defer resp.Body.Close()

	// The push service answers 410 once the browser has unsubscribed.
	if resp.StatusCode == http.StatusGone {
		metrics.Notifications.WithLabelValues("push", "expired").Inc()
		log.WithField("endpoint", sub.Endpoint).Info("Subscription is expired. Deleting.")
		if err := wp.store.DeletePushSubscription(ctx, sub.UserID, sub.Endpoint); err != nil {
			log.WithField("endpoint", sub.Endpoint).Errorf("Failed to delete expired subscription: %v", err)
		}
		return
	}
	metrics.Notifications.WithLabelValues("push", "sent").Inc()
}

func (wp *WorkerPool) postWebhook(ctx context.Context, url, message string) {
	if err := wp.sendWebhook(ctx, url, message); err != nil {
		metrics.Notifications.WithLabelValues("webhook", "failed").Inc()
		log.Errorf("Error posting webhook: %v", err)
		return
	}
	metrics.Notifications.WithLabelValues("webhook", "sent").Inc()
}

func (wp *WorkerPool) sendWebhook(ctx context.Context, url, message string) error {
	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := wp.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
