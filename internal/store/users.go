package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
)

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Username, duplicate(err))
	}
	return nil
}

func (s *gormStore) UserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *gormStore) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *gormStore) SetUserVerified(ctx context.Context, id int64, verified bool) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("verified", verified)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *gormStore) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DebitUser subtracts the debit from the user's counters in a single UPDATE
// that only matches while every counter still covers the debit. It returns
// ErrInsufficientQuota when the user exists but cannot afford it.
func (s *gormStore) DebitUser(ctx context.Context, id int64, d Debit) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Where("store_balance >= ?", d.Balance).
		Where("store_cpu >= ?", d.CPU).
		Where("store_memory >= ?", d.Memory).
		Where("store_disk >= ?", d.Disk).
		Where("store_slots >= ?", d.Slots).
		Where("store_ports >= ?", d.Ports).
		Where("store_backups >= ?", d.Backups).
		Where("store_databases >= ?", d.Databases).
		Updates(map[string]any{
			"store_balance":   gorm.Expr("store_balance - ?", d.Balance),
			"store_cpu":       gorm.Expr("store_cpu - ?", d.CPU),
			"store_memory":    gorm.Expr("store_memory - ?", d.Memory),
			"store_disk":      gorm.Expr("store_disk - ?", d.Disk),
			"store_slots":     gorm.Expr("store_slots - ?", d.Slots),
			"store_ports":     gorm.Expr("store_ports - ?", d.Ports),
			"store_backups":   gorm.Expr("store_backups - ?", d.Backups),
			"store_databases": gorm.Expr("store_databases - ?", d.Databases),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to debit user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.UserByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientQuota
	}
	return nil
}

func (s *gormStore) CreditUser(ctx context.Context, id int64, credits int64) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("store_balance", gorm.Expr("store_balance + ?", credits))
	if res.Error != nil {
		return fmt.Errorf("failed to credit user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *gormStore) PendingUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Where("approved = ?", false).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	return users, nil
}

func (s *gormStore) ApproveUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("approved", true).Error; err != nil {
		return nil, fmt.Errorf("failed to approve user %d: %w", id, err)
	}
	user.Approved = true
	return user, nil
}

// DeletePendingUser removes a user that has not been approved yet. Approved
// users are reported as apperr.ErrNotFound.
func (s *gormStore) DeletePendingUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("approved = ?", false).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.APIKey{}).Error; err != nil {
			return err
		}
		res := tx.Where("approved = ?", false).Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return &user, nil
}

func (s *gormStore) ApprovePendingUsers(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("approved = ?", false).Update("approved", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to approve pending users: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) DeletePendingUsers(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending := tx.Model(&model.User{}).Select("id").Where("approved = ?", false)
		if err := tx.Where("user_id IN (?)", pending).Delete(&model.APIKey{}).Error; err != nil {
			return err
		}
		res := tx.Where("approved = ?", false).Delete(&model.User{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending users: %w", err)
	}
	return deleted, nil
}

func (s *gormStore) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(key).Error; err != nil {
		return fmt.Errorf("failed to create api key for user %d: %w", key.UserID, err)
	}
	return nil
}

func (s *gormStore) APIKeyByIdentifier(ctx context.Context, identifier string) (*model.APIKey, error) {
	var key model.APIKey
	if err := s.db.WithContext(ctx).Preload("User").Where("identifier = ?", identifier).First(&key).Error; err != nil {
		return nil, notFound(err)
	}
	return &key, nil
}

func (s *gormStore) TouchAPIKey(ctx context.Context, id int64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.APIKey{}).Where("id = ?", id).Update("last_used_at", at).Error
}
