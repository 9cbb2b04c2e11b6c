package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
)

// CreateMedication inserts m and fills its ID.
func CreateMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return db.WithContext(ctx).Create(m).Error
}

// ListMedications returns the medications owned by userID, oldest first.
func ListMedications(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Medication, error) {
	var out []domain.Medication
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetMedication fetches a medication by primary key.
func GetMedication(ctx context.Context, db *gorm.DB, id uint) (*domain.Medication, error) {
	var m domain.Medication
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMedication writes the mutable columns of an existing medication.
// Returns ErrNotFound when the row is gone.
func SaveMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	m.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Medication{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"name":       m.Name,
			"indication": m.Indication,
			"quantity":   m.Quantity,
			"unit":       m.Unit,
			"updated_at": m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteMedication removes the medication row. Reminders must be removed
// first through the ReminderStore so their timers are cleared.
func deleteMedication(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Medication{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
