package model

import "time"

// Ticket states.
const (
	TicketPending    = "pending"
	TicketInProgress = "in-progress"
	TicketUnresolved = "unresolved"
	TicketResolved   = "resolved"
)

// Ticket is a support request opened by a user.
type Ticket struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	Title     string `gorm:"size:191;not null"`
	Content   string `gorm:"not null"`
	Status    string `gorm:"size:32;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Messages []TicketMessage `gorm:"foreignKey:TicketID"`
}

// TicketMessage is a reply on a ticket.
type TicketMessage struct {
	ID        int64  `gorm:"primaryKey"`
	TicketID  int64  `gorm:"index;not null"`
	UserID    int64  `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}
