package main

import (
	"context"
	"errors"
	"time"

	"bb01/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// identityRetryLimit bounds the unique-value generation loop. The value space
// is 128 bits, so hitting this bound means the generator is broken, not that
// we were unlucky.
const identityRetryLimit = 6

// IdentityStore manages the rotatable auth identity rows. newValue is
// injectable so tests can force collisions deterministically.
type IdentityStore struct {
	db       *gorm.DB
	newValue func() string
}

func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db, newValue: uuid.NewString}
}

// generateUniqueValue draws candidate values until taken reports one free,
// giving up after identityRetryLimit attempts.
func generateUniqueValue(newValue func() string, taken func(string) (bool, error)) (string, error) {
	for i := 0; i < identityRetryLimit; i++ {
		value := newValue()
		inUse, err := taken(value)
		if err != nil {
			return "", err
		}
		if !inUse {
			return value, nil
		}
	}
	return "", errRetryExhausted
}

// createTx inserts a fresh identity inside the given transaction. Uniqueness
// is pre-checked against the full table; the unique index backstops races.
func (s *IdentityStore) createTx(ctx context.Context, tx *gorm.DB) (*models.AuthIdentity, error) {
	value, err := generateUniqueValue(s.newValue, func(v string) (bool, error) {
		var count int64
		if err := tx.WithContext(ctx).Model(&models.AuthIdentity{}).Where("value = ?", v).Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	})
	if err != nil {
		return nil, err
	}
	identity := models.AuthIdentity{Value: value}
	if err := tx.WithContext(ctx).Create(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// Create inserts a fresh identity outside any caller transaction.
func (s *IdentityStore) Create(ctx context.Context) (*models.AuthIdentity, error) {
	return s.createTx(ctx, s.db)
}

// GetByValue returns the identity with the given opaque value, or nil when no
// such row exists.
func (s *IdentityStore) GetByValue(ctx context.Context, value string) (*models.AuthIdentity, error) {
	var identity models.AuthIdentity
	err := s.db.WithContext(ctx).Where("value = ?", value).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetByID returns the identity row by primary key, or nil when absent.
func (s *IdentityStore) GetByID(ctx context.Context, id uint) (*models.AuthIdentity, error) {
	var identity models.AuthIdentity
	err := s.db.WithContext(ctx).First(&identity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// Expire marks an identity inactive as of at. The row is kept for the audit
// trail and so historical foreign references stay intact.
func (s *IdentityStore) Expire(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.AuthIdentity{}).Where("id = ?", id).
		Update("expires_at", at).Error
}

// Rotate mints a new identity for the user, expires the old one and repoints
// the user row, all in one transaction. A concurrent login mid-rotation either
// completes against the old identity or fails cleanly; it never observes a
// half-created one.
func (s *IdentityStore) Rotate(ctx context.Context, user *models.User) (*models.AuthIdentity, error) {
	var fresh *models.AuthIdentity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.createTx(ctx, tx)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&models.AuthIdentity{}).Where("id = ?", user.AuthIdentityID).
			Update("expires_at", now).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("auth_identity_id", identity.ID).Error; err != nil {
			return err
		}
		fresh = identity
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.AuthIdentityID = fresh.ID
	return fresh, nil
}
