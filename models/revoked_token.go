package models

import "time"

// RevokedToken records a refresh token string that must never be honored
// again. Rows are append-only; TTL is the token's own expiry plus a safety
// margin, after which the row may be garbage collected because the token's
// signature would no longer validate anyway.
type RevokedToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Value     string    `gorm:"size:1024;not null;uniqueIndex"`
	TTL       time.Time `gorm:"column:ttl;index;not null"`
}
