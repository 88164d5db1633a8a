// Package deploy lets users spend store credits and quota on new servers.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"panel-backend/internal/apperr"
	"panel-backend/internal/metrics"
	"panel-backend/internal/model"
	"panel-backend/internal/store"
)

// ErrNoViableNode is returned when the node cannot provide enough free
// allocations for the request.
var ErrNoViableNode = &apperr.DisplayError{Message: "No viable node was found to deploy this server to."}

// ErrQuotaChanged is returned when the user's quota changed while the
// deployment was running.
var ErrQuotaChanged = &apperr.DisplayError{Message: "Your store resources changed during deployment, please try again."}

// NodeAgent installs and removes servers on their node.
type NodeAgent interface {
	CreateServer(ctx context.Context, node model.Node, serverUUID string, startOnCompletion bool) error
	DeleteServer(ctx context.Context, node model.Node, serverUUID string) error
}

// Request is the store's server creation form.
type Request struct {
	Name        string `json:"name" binding:"required,max=191"`
	Description string `json:"description" binding:"max=500"`
	Egg         int64  `json:"egg" binding:"required,min=1"`
	Nest        int64  `json:"nest" binding:"required,min=1"`
	Node        int64  `json:"node" binding:"required,min=1"`
	CPU         int    `json:"cpu" binding:"required,min=50"`
	Memory      int    `json:"memory" binding:"required,min=256"`
	Disk        int    `json:"disk" binding:"required,min=256"`
	Ports       int    `json:"ports" binding:"required,min=1"`
	Backups     int    `json:"backups" binding:"min=0"`
	Databases   int    `json:"databases" binding:"min=0"`
}

// Service runs store deployments.
type Service struct {
	store store.Store
	agent NodeAgent
}

// NewService creates a deployment service.
func NewService(s store.Store, agent NodeAgent) *Service {
	return &Service{store: s, agent: agent}
}

// Nodes lists the nodes users may deploy to.
func (s *Service) Nodes(ctx context.Context) ([]model.Node, error) {
	return s.store.DeployableNodes(ctx)
}

// Nests lists the nests users may deploy.
func (s *Service) Nests(ctx context.Context) ([]model.Nest, error) {
	return s.store.PublicNests(ctx)
}

// Eggs lists the eggs of a public nest. Without a nest id the first public
// nest is used.
func (s *Service) Eggs(ctx context.Context, nestID int64) ([]model.Egg, error) {
	if nestID == 0 {
		nests, err := s.store.PublicNests(ctx)
		if err != nil {
			return nil, err
		}
		if len(nests) == 0 {
			return nil, apperr.ErrNotFound
		}
		nestID = nests[0].ID
	}

	nest, err := s.store.NestByID(ctx, nestID)
	if err != nil {
		return nil, err
	}
	if nest.Private {
		return nil, apperr.ErrNotFound
	}
	return s.store.EggsForNest(ctx, nest.ID)
}

// Deploy validates the request against the user's quota, creates the server
// and debits the user. The node is asked to install the server inside the
// same transaction so a refusal leaves nothing behind.
func (s *Service) Deploy(ctx context.Context, userID int64, req Request) (*model.Server, error) {
	server, err := s.deploy(ctx, userID, req)
	if err != nil {
		result := "failed"
		if _, ok := apperr.AsDisplay(err); ok {
			result = "rejected"
		}
		metrics.Deployments.WithLabelValues(result).Inc()
		return nil, err
	}
	metrics.Deployments.WithLabelValues("created").Inc()
	return server, nil
}

func (s *Service) deploy(ctx context.Context, userID int64, req Request) (*model.Server, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	node, err := s.check(ctx, user, req)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	server := &model.Server{
		UUID:            id,
		UUIDShort:       id[:8],
		Name:            req.Name,
		Description:     req.Description,
		OwnerID:         user.ID,
		NodeID:          node.ID,
		NestID:          req.Nest,
		EggID:           req.Egg,
		Status:          model.ServerStatusInstalling,
		CPU:             req.CPU,
		Memory:          req.Memory,
		Disk:            req.Disk,
		AllocationLimit: req.Ports,
		BackupLimit:     req.Backups,
		DatabaseLimit:   req.Databases,
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		allocations, err := tx.FreeAllocations(ctx, node.ID, req.Ports)
		if err != nil {
			return err
		}
		if len(allocations) < req.Ports {
			return ErrNoViableNode
		}

		ids := make([]int64, len(allocations))
		for i, a := range allocations {
			ids[i] = a.ID
		}
		server.AllocationID = ids[0]

		if err := tx.CreateServer(ctx, server); err != nil {
			return err
		}
		if err := tx.AssignAllocations(ctx, server.ID, ids); err != nil {
			if errors.Is(err, store.ErrAllocationTaken) {
				return ErrNoViableNode
			}
			return err
		}

		err = tx.DebitUser(ctx, user.ID, store.Debit{
			Balance:   node.DeployFee,
			CPU:       req.CPU,
			Memory:    req.Memory,
			Disk:      req.Disk,
			Slots:     1,
			Ports:     req.Ports,
			Backups:   req.Backups,
			Databases: req.Databases,
		})
		if errors.Is(err, store.ErrInsufficientQuota) {
			// Another deployment spent the quota after check ran.
			fresh, ferr := tx.UserByID(ctx, user.ID)
			if ferr != nil {
				return ferr
			}
			if qerr := checkQuota(fresh, node, req); qerr != nil {
				return qerr
			}
			return ErrQuotaChanged
		}
		if err != nil {
			return err
		}

		if err := s.agent.CreateServer(ctx, *node, server.UUID, true); err != nil {
			return fmt.Errorf("node %d refused server %s: %w", node.ID, server.UUID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"server":  server.UUIDShort,
		"user_id": user.ID,
		"node_id": node.ID,
	}).Info("Server deployed from store")
	server.Node = *node
	return server, nil
}

// check runs the deployment preconditions in order and returns the target
// node.
func (s *Service) check(ctx context.Context, user *model.User, req Request) (*model.Node, error) {
	if !user.Verified {
		return nil, apperr.Display("Server deployment is unavailable for unverified accounts.")
	}

	nest, err := s.store.NestByID(ctx, req.Nest)
	if err != nil {
		return nil, err
	}
	if nest.Private {
		return nil, apperr.Display("This nest is private and cannot be deployed to.")
	}

	egg, err := s.store.EggByID(ctx, req.Egg)
	if err != nil {
		return nil, err
	}
	if egg.NestID != nest.ID {
		return nil, apperr.Display("The selected egg does not belong to this nest.")
	}

	node, err := s.store.NodeByID(ctx, req.Node)
	if err != nil {
		return nil, err
	}
	if !node.Deployable {
		return nil, apperr.Display("This node is not available for deployment.")
	}

	if err := checkQuota(user, node, req); err != nil {
		return nil, err
	}
	return node, nil
}

// checkQuota compares the user's store counters with the request.
func checkQuota(user *model.User, node *model.Node, req Request) error {
	if user.StoreSlots < 1 {
		return apperr.Display("You do not have enough server slots to deploy a server.")
	}

	quota := []struct {
		resource  string
		have, ask int
	}{
		{"CPU", user.StoreCPU, req.CPU},
		{"memory", user.StoreMemory, req.Memory},
		{"disk", user.StoreDisk, req.Disk},
		{"ports", user.StorePorts, req.Ports},
		{"backups", user.StoreBackups, req.Backups},
		{"databases", user.StoreDatabases, req.Databases},
	}
	for _, q := range quota {
		if q.have < q.ask {
			return apperr.Display("You do not have enough %s to deploy this server.", q.resource)
		}
	}

	if user.StoreBalance < node.DeployFee {
		return apperr.Display("You do not have enough credits to deploy to this node.")
	}
	return nil
}
