// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
)

// RemindersStats returns the number of reminders owned by userID and the
// greatest UpdatedAt among them (nil when there are none).
func RemindersStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.Reminder{}).Where("user_id = ?", userID))
}

// MedicationsStats is RemindersStats for medications.
func MedicationsStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.Medication{}).Where("user_id = ?", userID))
}

func tableStats(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	// Count
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
