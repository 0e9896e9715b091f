package main

import (
	"context"
	"errors"
	"strings"

	"bb01/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore wraps the user table lookups the auth flows need.
type UserStore struct {
	db         *gorm.DB
	identities *IdentityStore
}

func NewUserStore(db *gorm.DB, identities *IdentityStore) *UserStore {
	return &UserStore{db: db, identities: identities}
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
}

// Register creates the auth identity and the user row in one transaction. A
// unique-constraint race on email or username comes back as errDuplicate,
// same as the pre-check.
func (s *UserStore) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, in.Username).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, errDuplicate
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		identity, err := s.identities.createTx(ctx, tx)
		if err != nil {
			return err
		}
		user = models.User{
			Email:          email,
			Username:       in.Username,
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			HashedPassword: hashed,
			AuthIdentityID: identity.ID,
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns the user for a login identifier, or nil when unknown.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID returns the user row by primary key, or nil when absent.
func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAuthIdentityID returns the user currently pointing at the identity, or
// nil when the identity has been superseded.
func (s *UserStore) GetByAuthIdentityID(ctx context.Context, identityID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("auth_identity_id = ?", identityID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
