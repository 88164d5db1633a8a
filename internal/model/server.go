package model

import "time"

// Server install states.
const (
	ServerStatusInstalling    = "installing"
	ServerStatusInstallFailed = "install_failed"
)

// Server is a managed instance living on a node.
type Server struct {
	ID           int64  `gorm:"primaryKey"`
	UUID         string `gorm:"column:uuid;uniqueIndex;size:36;not null"`
	UUIDShort    string `gorm:"column:uuid_short;uniqueIndex;size:8;not null"`
	Name         string `gorm:"size:191;not null"`
	Description  string
	OwnerID      int64  `gorm:"index;not null"`
	NodeID       int64  `gorm:"index;not null"`
	NestID       int64  `gorm:"not null"`
	EggID        int64  `gorm:"not null"`
	AllocationID int64  `gorm:"not null"`
	Status       string `gorm:"size:32"`

	// CPU is a percentage of one core; zero means unlimited.
	CPU             int `gorm:"not null"`
	Memory          int `gorm:"not null"` // MiB
	Disk            int `gorm:"not null"` // MiB
	AllocationLimit int `gorm:"not null;default:0"`
	BackupLimit     int `gorm:"not null;default:0"`
	DatabaseLimit   int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Owner User `gorm:"foreignKey:OwnerID"`
	Node  Node `gorm:"foreignKey:NodeID"`
}
