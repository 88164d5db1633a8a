package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"panel-backend/internal/model"
)

// Setting returns the stored value for key, or fallback when it is unset.
func (s *gormStore) Setting(ctx context.Context, key, fallback string) (string, error) {
	var setting model.Setting
	err := s.db.WithContext(ctx).Where(&model.Setting{Key: key}).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return setting.Value, nil
}

func (s *gormStore) SetSetting(ctx context.Context, key, value string) error {
	setting := model.Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}
