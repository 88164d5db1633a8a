package deploy

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Delete removes a server from its node and from the panel. The server's
// allocations are released and its analytics dropped. With force set, a
// node that cannot be reached does not stop the panel-side deletion.
func (s *Service) Delete(ctx context.Context, identifier string, force bool) error {
	server, err := s.store.ServerByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{"server": server.UUIDShort, "node_id": server.NodeID})
	if err := s.agent.DeleteServer(ctx, server.Node, server.UUID); err != nil {
		if !force {
			return fmt.Errorf("failed to delete server %s on node %d: %w", server.UUIDShort, server.NodeID, err)
		}
		logger.Warnf("Node could not delete server, removing it from the panel anyway: %v", err)
	}

	if err := s.store.DeleteServer(ctx, server.ID); err != nil {
		return err
	}
	logger.Info("Server deleted")
	return nil
}
