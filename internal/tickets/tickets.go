// Package tickets implements the support ticket desk.
package tickets

import (
	"context"

	log "github.com/sirupsen/logrus"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/store"
)

// CreateRequest opens a ticket.
type CreateRequest struct {
	Title   string `json:"title" binding:"required,max=191"`
	Content string `json:"content" binding:"required,max=5000"`
}

// MessageRequest replies to a ticket.
type MessageRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// StatusRequest changes a ticket's state.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in-progress unresolved resolved"`
}

// Service manages tickets.
type Service struct {
	store store.Store
}

// NewService creates a ticket service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// ListForUser returns the user's tickets, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]model.Ticket, error) {
	return s.store.TicketsByUser(ctx, userID)
}

// ListAll returns every ticket, newest first.
func (s *Service) ListAll(ctx context.Context) ([]model.Ticket, error) {
	return s.store.ListTickets(ctx)
}

// Create opens a new pending ticket.
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (*model.Ticket, error) {
	ticket := &model.Ticket{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Status:  model.TicketPending,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"ticket_id": ticket.ID, "user_id": userID}).Info("Ticket opened")
	return ticket, nil
}

// Get returns a ticket with its messages. Non-admins may only read their own
// tickets.
func (s *Service) Get(ctx context.Context, user *model.User, id int64) (*model.Ticket, error) {
	ticket, err := s.store.TicketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != user.ID && !user.RootAdmin {
		return nil, apperr.ErrNotFound
	}
	return ticket, nil
}

// Reply adds a message to a ticket. Replies to resolved tickets reopen them.
func (s *Service) Reply(ctx context.Context, user *model.User, id int64, req MessageRequest) (*model.TicketMessage, error) {
	ticket, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	msg := &model.TicketMessage{TicketID: ticket.ID, UserID: user.ID, Content: req.Content}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.AddTicketMessage(ctx, msg); err != nil {
			return err
		}
		if ticket.Status == model.TicketResolved && !user.RootAdmin {
			return tx.SetTicketStatus(ctx, ticket.ID, model.TicketPending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// SetStatus changes a ticket's state.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case model.TicketPending, model.TicketInProgress, model.TicketUnresolved, model.TicketResolved:
	default:
		return apperr.Display("%q is not a valid ticket status.", status)
	}
	if err := s.store.SetTicketStatus(ctx, id, status); err != nil {
		return err
	}
	log.WithFields(log.Fields{"ticket_id": id, "status": status}).Info("Ticket status changed")
	return nil
}
