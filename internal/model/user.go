package model

import "time"

// User is a panel account together with its store quota.
type User struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;size:191;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	RootAdmin bool   `gorm:"not null;default:false" json:"root_admin"`
	Verified  bool   `gorm:"not null;default:false" json:"verified"`
	Approved  bool   `gorm:"not null;default:false" json:"approved"`

	StoreBalance   int64 `gorm:"not null;default:0" json:"store_balance"`
	StoreCPU       int   `gorm:"not null;default:0" json:"store_cpu"`
	StoreMemory    int   `gorm:"not null;default:0" json:"store_memory"`
	StoreDisk      int   `gorm:"not null;default:0" json:"store_disk"`
	StoreSlots     int   `gorm:"not null;default:0" json:"store_slots"`
	StorePorts     int   `gorm:"not null;default:0" json:"store_ports"`
	StoreBackups   int   `gorm:"not null;default:0" json:"store_backups"`
	StoreDatabases int   `gorm:"not null;default:0" json:"store_databases"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// APIKey is a client API credential. The bearer token is Identifier followed
// by the secret whose bcrypt hash is stored in Token.
type APIKey struct {
	ID         int64  `gorm:"primaryKey"`
	UserID     int64  `gorm:"index;not null"`
	Identifier string `gorm:"uniqueIndex;size:16;not null"`
	Token      string `gorm:"not null"`
	Memo       string `gorm:"size:500"`
	LastUsedAt *time.Time
	CreatedAt  time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
