package model

import "time"

// Nest groups eggs of the same family (for example all Minecraft flavours).
type Nest struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:191;not null"`
	Description string
	Private     bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Eggs []Egg `gorm:"foreignKey:NestID"`
}

// Egg describes how to install and start one kind of server.
type Egg struct {
	ID          int64  `gorm:"primaryKey"`
	NestID      int64  `gorm:"index;not null"`
	Name        string `gorm:"size:191;not null"`
	Description string
	DockerImage string `gorm:"not null"`
	Startup     string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Nest Nest `gorm:"constraint:OnDelete:CASCADE"`
}
