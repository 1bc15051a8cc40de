package models

import "time"

// RateLimit is the database fallback counter for request rate limiting,
// used when Redis is unavailable.
type RateLimit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"not null;index" json:"key"`
	Count       int       `gorm:"default:0" json:"count"`
	WindowStart time.Time `gorm:"not null;index" json:"window_start"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RateLimit) TableName() string { return "rate_limits" }
