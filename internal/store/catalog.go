package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"panel-backend/internal/model"
)

func (s *gormStore) ListNodes(ctx context.Context) ([]model.Node, error) {
	var nodes []model.Node
	if err := s.db.WithContext(ctx).Order("id").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

func (s *gormStore) DeployableNodes(ctx context.Context) ([]model.Node, error) {
	var nodes []model.Node
	if err := s.db.WithContext(ctx).Where("deployable = ?", true).Order("id").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list deployable nodes: %w", err)
	}
	return nodes, nil
}

func (s *gormStore) NodeByID(ctx context.Context, id int64) (*model.Node, error) {
	var node model.Node
	if err := s.db.WithContext(ctx).First(&node, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &node, nil
}

// CreateNode inserts the node and one allocation per port on ip.
// Ports that already exist on the node are skipped.
func (s *gormStore) CreateNode(ctx context.Context, node *model.Node, ip string, ports []int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Allocations").Create(node).Error; err != nil {
			return fmt.Errorf("failed to create node %q: %w", node.Name, err)
		}
		if len(ports) == 0 {
			return nil
		}

		allocations := make([]model.Allocation, 0, len(ports))
		for _, port := range ports {
			allocations = append(allocations, model.Allocation{NodeID: node.ID, IP: ip, Port: port})
		}
		if err := tx.Omit("Node").Clauses(clause.OnConflict{DoNothing: true}).Create(&allocations).Error; err != nil {
			return fmt.Errorf("failed to create allocations for node %d: %w", node.ID, err)
		}
		node.Allocations = allocations
		return nil
	})
}

func (s *gormStore) FreeAllocations(ctx context.Context, nodeID int64, limit int) ([]model.Allocation, error) {
	var allocations []model.Allocation
	err := s.db.WithContext(ctx).
		Where("node_id = ? AND server_id IS NULL", nodeID).
		Order("port").
		Limit(limit).
		Find(&allocations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find free allocations on node %d: %w", nodeID, err)
	}
	return allocations, nil
}

// AssignAllocations binds the allocations to serverID. It fails with
// ErrAllocationTaken when any of them was claimed by someone else first.
func (s *gormStore) AssignAllocations(ctx context.Context, serverID int64, ids []int64) error {
	res := s.db.WithContext(ctx).Model(&model.Allocation{}).
		Where("id IN ? AND server_id IS NULL", ids).
		Update("server_id", serverID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign allocations to server %d: %w", serverID, res.Error)
	}
	if res.RowsAffected != int64(len(ids)) {
		return ErrAllocationTaken
	}
	return nil
}

func (s *gormStore) ListNests(ctx context.Context) ([]model.Nest, error) {
	var nests []model.Nest
	if err := s.db.WithContext(ctx).Order("id").Find(&nests).Error; err != nil {
		return nil, fmt.Errorf("failed to list nests: %w", err)
	}
	return nests, nil
}

func (s *gormStore) PublicNests(ctx context.Context) ([]model.Nest, error) {
	var nests []model.Nest
	if err := s.db.WithContext(ctx).Where("private = ?", false).Order("id").Find(&nests).Error; err != nil {
		return nil, fmt.Errorf("failed to list public nests: %w", err)
	}
	return nests, nil
}

func (s *gormStore) NestByID(ctx context.Context, id int64) (*model.Nest, error) {
	var nest model.Nest
	if err := s.db.WithContext(ctx).First(&nest, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &nest, nil
}

func (s *gormStore) CreateNest(ctx context.Context, nest *model.Nest) error {
	if err := s.db.WithContext(ctx).Omit("Eggs").Create(nest).Error; err != nil {
		return fmt.Errorf("failed to create nest %q: %w", nest.Name, err)
	}
	return nil
}

func (s *gormStore) EggsForNest(ctx context.Context, nestID int64) ([]model.Egg, error) {
	var eggs []model.Egg
	if err := s.db.WithContext(ctx).Where("nest_id = ?", nestID).Order("id").Find(&eggs).Error; err != nil {
		return nil, fmt.Errorf("failed to list eggs for nest %d: %w", nestID, err)
	}
	return eggs, nil
}

func (s *gormStore) EggByID(ctx context.Context, id int64) (*model.Egg, error) {
	var egg model.Egg
	if err := s.db.WithContext(ctx).First(&egg, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &egg, nil
}

func (s *gormStore) CreateEgg(ctx context.Context, egg *model.Egg) error {
	if err := s.db.WithContext(ctx).Omit("Nest").Create(egg).Error; err != nil {
		return fmt.Errorf("failed to create egg %q: %w", egg.Name, err)
	}
	return nil
}
