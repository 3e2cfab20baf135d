package models

import "time"

// GuestSession is an anonymous visitor identity. Rows are never mutated after
// insert; they are read until ExpiresAt passes.
type GuestSession struct {
	BaseModel
	Token     string    `gorm:"uniqueIndex" json:"token"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
