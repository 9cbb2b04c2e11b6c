// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users and the
// helper/helped relation.
//
// Error semantics follow the rest of the package: missing rows surface as
// ErrNotFound, unique violations as ErrDuplicate, anything else is the raw
// gorm error.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a row with the same unique key already exists.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateUser registers a Home Assistant user with the given role.
// Returns ErrDuplicate when the Home Assistant id is already registered.
func CreateUser(ctx context.Context, db *gorm.DB, homeAssistantUserID string, role domain.UserRole) (*domain.User, error) {
	u := &domain.User{HomeAssistantUserID: homeAssistantUserID, Role: role}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByHomeAssistantID fetches the user registered for a Home Assistant id.
func GetUserByHomeAssistantID(ctx context.Context, db *gorm.DB, homeAssistantUserID string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("home_assistant_user_id = ?", homeAssistantUserID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserDevice sets (or clears, when device is nil) the mobile app device
// that receives the user's notifications.
func UpdateUserDevice(ctx context.Context, db *gorm.DB, id uint, device *string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("mobile_app_device", device)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddHelpedUser links helperID to helpedID. Returns ErrDuplicate when the
// link already exists.
func AddHelpedUser(ctx context.Context, db *gorm.DB, helperID, helpedID uint) error {
	link := &domain.UserHelp{HelperID: helperID, HelpedUserID: helpedID}
	if err := db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// IsHelping reports whether helperID helps helpedID.
func IsHelping(ctx context.Context, db *gorm.DB, helperID, helpedID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.UserHelp{}).
		Where("helper_id = ? AND helped_user_id = ?", helperID, helpedID).
		Count(&n).Error
	return n > 0, err
}

// ListHelpedUsers returns the users helped by helperID, ordered by id.
func ListHelpedUsers(ctx context.Context, db *gorm.DB, helperID uint) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Joins("JOIN pillmate_user_helps h ON h.helped_user_id = pillmate_users.id").
		Where("h.helper_id = ?", helperID).
		Order("pillmate_users.id asc").
		Find(&out).Error
	return out, err
}
