package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"panel-backend/internal/model"
)

// RecordAnalytics stores a sample for a server, first deleting the oldest
// rows so that at most maxEntries remain afterwards.
func (s *gormStore) RecordAnalytics(ctx context.Context, sample *model.AnalyticsData, maxEntries int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.AnalyticsData{}).Where("server_id = ?", sample.ServerID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count analytics for server %d: %w", sample.ServerID, err)
		}

		if excess := count - int64(maxEntries) + 1; maxEntries > 0 && excess > 0 {
			var oldest []model.AnalyticsData
			if err := tx.Where("server_id = ?", sample.ServerID).Order("id asc").Limit(int(excess)).Find(&oldest).Error; err != nil {
				return fmt.Errorf("failed to find oldest analytics for server %d: %w", sample.ServerID, err)
			}
			if len(oldest) > 0 {
				if err := tx.Delete(&oldest).Error; err != nil {
					return fmt.Errorf("failed to delete oldest analytics for server %d: %w", sample.ServerID, err)
				}
			}
		}

		if err := tx.Create(sample).Error; err != nil {
			return fmt.Errorf("failed to write analytics for server %d: %w", sample.ServerID, err)
		}
		return nil
	})
}

// RecentAnalytics returns up to limit samples for a server, oldest first.
func (s *gormStore) RecentAnalytics(ctx context.Context, serverID int64, limit int) ([]model.AnalyticsData, error) {
	var rows []model.AnalyticsData
	if err := s.db.WithContext(ctx).Where("server_id = ?", serverID).Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load analytics for server %d: %w", serverID, err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
