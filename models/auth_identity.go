package models

import "time"

// AuthIdentity is the rotatable opaque value embedded as the subject claim in
// every token issued to a user. Rotating it (on logout-everywhere) orphans all
// tokens that were issued under the previous value. Superseded rows are kept
// with ExpiresAt set instead of being deleted.
type AuthIdentity struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Value     string     `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt *time.Time `gorm:"index"` // nil while the identity is active
}

// Active reports whether the identity is still the live one as of now.
func (a *AuthIdentity) Active(now time.Time) bool {
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}
