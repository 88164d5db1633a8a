package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
)

// ListServers returns every server with its node loaded.
func (s *gormStore) ListServers(ctx context.Context) ([]model.Server, error) {
	var servers []model.Server
	if err := s.db.WithContext(ctx).Preload("Node").Order("id").Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

func (s *gormStore) ServersByOwner(ctx context.Context, ownerID int64) ([]model.Server, error) {
	var servers []model.Server
	if err := s.db.WithContext(ctx).Preload("Node").Where("owner_id = ?", ownerID).Order("id").Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to list servers for user %d: %w", ownerID, err)
	}
	return servers, nil
}

// ServerByIdentifier looks a server up by its short or full UUID.
func (s *gormStore) ServerByIdentifier(ctx context.Context, identifier string) (*model.Server, error) {
	var server model.Server
	err := s.db.WithContext(ctx).Preload("Node").
		Where("uuid_short = ? OR uuid = ?", identifier, identifier).
		First(&server).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &server, nil
}

func (s *gormStore) CreateServer(ctx context.Context, server *model.Server) error {
	if err := s.db.WithContext(ctx).Omit("Owner", "Node").Create(server).Error; err != nil {
		return fmt.Errorf("failed to create server %q: %w", server.Name, err)
	}
	return nil
}

// DeleteServer removes the server, its analytics and frees its allocations.
func (s *gormStore) DeleteServer(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("server_id = ?", id).Delete(&model.AnalyticsData{}).Error; err != nil {
			return fmt.Errorf("failed to delete analytics for server %d: %w", id, err)
		}
		if err := tx.Model(&model.Allocation{}).Where("server_id = ?", id).Update("server_id", nil).Error; err != nil {
			return fmt.Errorf("failed to release allocations for server %d: %w", id, err)
		}
		res := tx.Delete(&model.Server{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete server %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}
