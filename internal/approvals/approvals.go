// Package approvals gates new accounts behind an administrator's approval.
package approvals

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/notification"
	"panel-backend/internal/store"
)

// Setting keys.
const (
	KeyEnabled = "approvals:enabled"
	KeyWebhook = "approvals:webhook"
)

// Bulk actions.
const (
	ActionApprove = "approve"
	ActionDeny    = "deny"
)

// Notifier queues a notification for delivery.
type Notifier interface {
	Dispatch(job notification.Job) bool
}

// Settings is the approval configuration.
type Settings struct {
	Enabled bool   `json:"enabled"`
	Webhook string `json:"webhook"`
}

// Overview is what the admin approvals page shows.
type Overview struct {
	Settings
	Users []model.User `json:"users"`
}

// Service manages approval settings and pending users.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates an approvals service. notifier may be nil.
func NewService(s store.Store, notifier Notifier) *Service {
	return &Service{store: s, notifier: notifier}
}

// Settings reads the current approval settings.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	enabled, err := s.store.Setting(ctx, KeyEnabled, "false")
	if err != nil {
		return Settings{}, err
	}
	webhook, err := s.store.Setting(ctx, KeyWebhook, "")
	if err != nil {
		return Settings{}, err
	}

	on, err := strconv.ParseBool(enabled)
	if err != nil {
		log.Warnf("Invalid value %q for setting %s, treating approvals as disabled", enabled, KeyEnabled)
	}
	return Settings{Enabled: on, Webhook: webhook}, nil
}

// Enabled reports whether new users must be approved.
func (s *Service) Enabled(ctx context.Context) (bool, error) {
	settings, err := s.Settings(ctx)
	return settings.Enabled, err
}

// Overview returns the settings together with every pending user.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return Overview{}, err
	}
	users, err := s.store.PendingUsers(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{Settings: settings, Users: users}, nil
}

// UpdateSettings stores new approval settings.
func (s *Service) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.Webhook != "" {
		u, err := url.Parse(settings.Webhook)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperr.Display("The webhook must be a valid http or https URL.")
		}
	}

	return s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.SetSetting(ctx, KeyEnabled, strconv.FormatBool(settings.Enabled)); err != nil {
			return err
		}
		return tx.SetSetting(ctx, KeyWebhook, settings.Webhook)
	})
}

// Bulk approves or deletes every pending user and returns how many changed.
func (s *Service) Bulk(ctx context.Context, action string) (int64, error) {
	switch action {
	case ActionApprove:
		n, err := s.store.ApprovePendingUsers(ctx)
		if err == nil {
			log.WithField("count", n).Info("Approved all pending users")
		}
		return n, err
	case ActionDeny:
		n, err := s.store.DeletePendingUsers(ctx)
		if err == nil {
			log.WithField("count", n).Info("Denied all pending users")
		}
		return n, err
	default:
		return 0, apperr.Display("Unknown approval action %q.", action)
	}
}

// Approve grants a single user access to the panel.
func (s *Service) Approve(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.ApproveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Infof("%s has been approved", user.Username)
	return user, nil
}

// Deny deletes a single pending user. Approved users are not found here.
func (s *Service) Deny(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.DeletePendingUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Infof("%s has been denied", user.Username)
	return user, nil
}

// AnnounceRegistration posts a message to the approvals webhook, if one is
// configured, when a new user is waiting for approval.
func (s *Service) AnnounceRegistration(ctx context.Context, user *model.User) {
	if s.notifier == nil {
		return
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		log.Errorf("Failed to read approval settings: %v", err)
		return
	}
	if !settings.Enabled || settings.Webhook == "" {
		return
	}

	s.notifier.Dispatch(notification.Job{
		Webhook: settings.Webhook,
		Message: fmt.Sprintf("%s (%s) has registered and is waiting for approval.", user.Username, user.Email),
	})
}
