package models

import (
	"time"
)

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time   `gorm:"index"`
	Email          string       `gorm:"size:255;not null;uniqueIndex"`
	Username       string       `gorm:"size:255;not null;uniqueIndex"`
	FirstName      string       `gorm:"size:255;not null"`
	LastName       string       `gorm:"size:255;not null"`
	HashedPassword []byte       `gorm:"not null"`
	AuthIdentityID uint         `gorm:"uniqueIndex;not null"`
	AuthIdentity   AuthIdentity `gorm:"foreignKey:AuthIdentityID;references:ID"`
}
