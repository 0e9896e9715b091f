package models

import "time"

// Board represents a kanban-style board. Name is stored lowercased and must
// be unique among non-deleted boards; PID is the public identifier used in
// URLs so row ids never leak.
type Board struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	PID       string     `gorm:"size:64;not null;uniqueIndex"`
	Name      string     `gorm:"size:255;not null;uniqueIndex"`
	Members   []BoardMember
}

// BoardMember links a user to a board with its role flags.
type BoardMember struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BoardID   uint `gorm:"not null;uniqueIndex:idx_board_members_board_user"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_board_members_board_user;index"`
	IsOwner   bool `gorm:"default:false;not null"`
	IsAdmin   bool `gorm:"default:false;not null"`
}
