package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
)

func (s *gormStore) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := s.db.WithContext(ctx).Order("id desc").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (s *gormStore) TicketsByUser(ctx context.Context, userID int64) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets for user %d: %w", userID, err)
	}
	return tickets, nil
}

// TicketByID loads a ticket together with its messages in posting order.
func (s *gormStore) TicketByID(ctx context.Context, id int64) (*model.Ticket, error) {
	var ticket model.Ticket
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&ticket, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ticket, nil
}

func (s *gormStore) CreateTicket(ctx context.Context, ticket *model.Ticket) error {
	if err := s.db.WithContext(ctx).Omit("Messages").Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (s *gormStore) AddTicketMessage(ctx context.Context, msg *model.TicketMessage) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to add message to ticket %d: %w", msg.TicketID, err)
	}
	return nil
}

func (s *gormStore) SetTicketStatus(ctx context.Context, id int64, status string) error {
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update ticket %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
