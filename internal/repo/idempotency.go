// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for POST endpoints.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
)

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID uint, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND scope = ? AND key = ? AND expires_at > ?", userID, scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique
// violation. An expired record holding the same key is replaced.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID uint, scope, key string, resourceID uint, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     userID,
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND scope = ? AND key = ? AND expires_at <= ?", userID, scope, key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes records that expired at or before now.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// IdempotencyStore binds the idempotency helpers to a database handle.
type IdempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewIdempotencyStore returns a store whose records live for ttl.
func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl}
}

// Lookup returns the resource id recorded for (user, scope, key).
func (s *IdempotencyStore) Lookup(ctx context.Context, userID uint, scope, key string) (uint, bool, error) {
	rec, err := GetIdempotency(ctx, s.db, userID, scope, key, time.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.ResourceID, true, nil
}

// Remember records resourceID for (user, scope, key). A concurrent replay
// that already stored the key is not an error.
func (s *IdempotencyStore) Remember(ctx context.Context, userID uint, scope, key string, resourceID uint, status int) error {
	_, err := CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

// Purge removes expired records.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	return PurgeExpiredIdempotency(ctx, s.db, time.Now().UTC())
}
