package model

import "time"

// AnalyticsData is one utilization sample for a server, in percent of its limits.
type AnalyticsData struct {
	ID        int64   `gorm:"primaryKey"`
	ServerID  int64   `gorm:"index;not null"`
	CPU       float64 `gorm:"not null"`
	Memory    float64 `gorm:"not null"`
	Disk      float64 `gorm:"not null"`
	CreatedAt time.Time
}

func (AnalyticsData) TableName() string {
	return "analytics_data"
}
