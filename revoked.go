package main

import (
	"context"
	"errors"
	"time"

	"bb01/models"

	"gorm.io/gorm"
)

// RevocationLedger is the append-only record of refresh tokens invalidated
// before their natural expiry. The unique index on value makes the
// check-then-insert sequence race-safe: of two concurrent refreshes consuming
// the same token, the loser gets errAlreadyRevoked from the insert.
type RevocationLedger struct {
	db *gorm.DB
}

func NewRevocationLedger(db *gorm.DB) *RevocationLedger {
	return &RevocationLedger{db: db}
}

// IsRevoked reports whether the token value is already on the ledger.
func (l *RevocationLedger) IsRevoked(ctx context.Context, value string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("value = ?", value).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Revoke appends the token value with the given ttl. A duplicate insert means
// someone else revoked it first and is reported as errAlreadyRevoked.
func (l *RevocationLedger) Revoke(ctx context.Context, value string, ttl time.Time) error {
	err := l.db.WithContext(ctx).Create(&models.RevokedToken{Value: value, TTL: ttl}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errAlreadyRevoked
	}
	return err
}

// PurgeExpired removes ledger rows whose ttl has passed. Housekeeping only;
// nothing in the request path depends on it running.
func (l *RevocationLedger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := l.db.WithContext(ctx).Where("ttl < ?", now).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
