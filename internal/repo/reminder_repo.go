package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/calendar"
	"github.com/tbourn/pill-mate/internal/domain"
)

// errStale means the row's next date is no longer the one the caller saw.
var errStale = errors.New("reminder next date changed")

// Reads are exported; writes stay unexported so every reminder change goes
// through ReminderStore and reaches its observers.

// ListReminders returns the reminders of userID, oldest first.
func ListReminders(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Reminder, error) {
	var out []domain.Reminder
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// ListAllReminders returns every reminder, oldest first.
func ListAllReminders(ctx context.Context, db *gorm.DB) ([]domain.Reminder, error) {
	var out []domain.Reminder
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetReminder fetches a reminder by primary key.
func GetReminder(ctx context.Context, db *gorm.DB, id uint) (*domain.Reminder, error) {
	var r domain.Reminder
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func listRemindersByMedication(ctx context.Context, db *gorm.DB, medicationID uint) ([]domain.Reminder, error) {
	var out []domain.Reminder
	err := db.WithContext(ctx).
		Where("medication_id = ?", medicationID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

func insertReminder(ctx context.Context, db *gorm.DB, r *domain.Reminder) error {
	return db.WithContext(ctx).Create(r).Error
}

// updateReminder never inserts: a missing row yields ErrNotFound.
func updateReminder(ctx context.Context, db *gorm.DB, r *domain.Reminder) error {
	r.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Reminder{}).
		Where("id = ?", r.ID).
		Updates(map[string]any{
			"time":          r.Time,
			"frequency":     r.Frequency,
			"quantity":      r.Quantity,
			"next_date":     r.NextDate,
			"medication_id": r.MedicationID,
			"updated_at":    r.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// advanceReminder moves next_date from `from` by the row's current frequency
// and writes that column only, so concurrent edits to the other columns
// survive. It fails with errStale when next_date is no longer from.
func advanceReminder(ctx context.Context, db *gorm.DB, id uint, from string) (*domain.Reminder, error) {
	var out *domain.Reminder
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := GetReminder(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.NextDate != from {
			return errStale
		}
		next, err := calendar.Advance(r.NextDate, r.Frequency)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		res := tx.Model(&domain.Reminder{}).
			Where("id = ? AND next_date = ?", id, from).
			Updates(map[string]any{"next_date": next, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStale
		}
		r.NextDate, r.UpdatedAt = next, now
		out = r
		return nil
	})
	return out, err
}

func deleteReminder(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Reminder{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
