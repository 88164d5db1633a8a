package model

import "time"

// Coupon grants credits to whoever redeems it while it has uses left.
type Coupon struct {
	ID        int64     `gorm:"primaryKey"`
	Code      string    `gorm:"uniqueIndex;size:191;not null"`
	Cr        int64     `gorm:"not null"`
	Uses      int       `gorm:"not null"`
	Expires   time.Time `gorm:"not null;index"`
	Expired   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CouponRedemption records that a user has used a coupon.
type CouponRedemption struct {
	CouponID   int64 `gorm:"primaryKey"`
	UserID     int64 `gorm:"primaryKey"`
	RedeemedAt time.Time
}
