package models

import "time"

// Organisation groups boards and users under one tenant. Name is stored
// lowercased and unique; PID is the public identifier exposed over HTTP.
type Organisation struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	PID       string     `gorm:"size:64;not null;uniqueIndex"`
	Name      string     `gorm:"size:255;not null;uniqueIndex"`
	OwnerID   uint       `gorm:"index;not null"`
	Owner     User       `gorm:"foreignKey:OwnerID;references:ID"`
}
