// Package domain defines the persistence models for users, medications and
// reminders. These types are mapped with GORM and form the core data layer
// of the Pill Mate add-on.
package domain

import (
	"time"
)

// UserRole tells whether a user is followed by someone else (HELPED) or
// follows other users (HELPER). Values are stored as integers.
type UserRole int

const (
	RoleHelped UserRole = iota
	RoleHelper
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool { return r == RoleHelped || r == RoleHelper }

// MedicationUnit is the unit a medication quantity is expressed in.
type MedicationUnit int

const (
	UnitTablet MedicationUnit = iota
	UnitCapsule
	UnitML
	UnitDrops
	UnitUnit
)

// Valid reports whether u is one of the known units.
func (u MedicationUnit) Valid() bool { return u >= UnitTablet && u <= UnitUnit }

// Label returns the French label used in reminder messages.
func (u MedicationUnit) Label(plural bool) string {
	s := ""
	if plural {
		s = "s"
	}
	switch u {
	case UnitTablet:
		return "comprimé" + s
	case UnitCapsule:
		return "gélule" + s
	case UnitML:
		return "mL"
	case UnitDrops:
		return "goutte" + s
	default:
		return "unité" + s
	}
}

// User is a Home Assistant person registered in the add-on.
//
// Fields:
//   - ID: integer primary key.
//   - HomeAssistantUserID: 32 lowercase hex chars, taken from the ingress headers.
//   - Role: HELPED or HELPER.
//   - MobileAppDevice: name of the companion-app device that receives
//     notifications; nil disables notifications for this user.
type User struct {
	ID                  uint      `json:"id"                  gorm:"primaryKey"`
	HomeAssistantUserID string    `json:"homeAssistantUserId" gorm:"type:varchar(32);not null;uniqueIndex"`
	Role                UserRole  `json:"role"                gorm:"not null"`
	MobileAppDevice     *string   `json:"mobileAppDevice"     gorm:"type:varchar(255)"`
	CreatedAt           time.Time `json:"-"`
	UpdatedAt           time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "pillmate_users" }

// UserHelp links a HELPER to a HELPED user.
type UserHelp struct {
	ID           uint `gorm:"primaryKey"`
	HelperID     uint `gorm:"not null;uniqueIndex:ux_user_help,priority:1"`
	HelpedUserID uint `gorm:"not null;uniqueIndex:ux_user_help,priority:2;index"`

	Helper User `gorm:"foreignKey:HelperID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Helped User `gorm:"foreignKey:HelpedUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserHelp.
func (UserHelp) TableName() string { return "pillmate_user_helps" }

// Medication is a stock of medicine owned by a user. Quantity is decremented
// each time one of its reminders fires and never goes below zero.
type Medication struct {
	ID         uint           `json:"id"         gorm:"primaryKey"`
	Name       string         `json:"name"       gorm:"type:varchar(255);not null"`
	Indication *string        `json:"indication" gorm:"type:varchar(500)"`
	Quantity   float64        `json:"quantity"   gorm:"not null;check:quantity >= 0"`
	Unit       MedicationUnit `json:"unit"       gorm:"not null"`
	UserID     uint           `json:"userId"     gorm:"not null;index"`
	CreatedAt  time.Time      `json:"-"`
	UpdatedAt  time.Time      `json:"-"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Medication.
func (Medication) TableName() string { return "pillmate_medications" }

// Reminder fires every Frequency days at Time (local "HH:MM"). NextDate
// ("YYYY-MM-DD") together with Time gives the next occurrence instant.
//
// Fields:
//   - Time: 24h wall-clock time of day.
//   - Frequency: days between two occurrences, >= 1.
//   - Quantity: amount of medication taken per occurrence.
//   - NextDate: calendar date of the next occurrence.
//   - MedicationID / UserID: owning medication and user.
type Reminder struct {
	ID           uint      `json:"id"           gorm:"primaryKey"`
	Time         string    `json:"time"         gorm:"type:varchar(5);not null"`
	Frequency    int       `json:"frequency"    gorm:"not null;check:frequency >= 1"`
	Quantity     float64   `json:"quantity"     gorm:"not null"`
	NextDate     string    `json:"nextDate"     gorm:"type:varchar(10);not null"`
	MedicationID uint      `json:"medicationId" gorm:"not null;index"`
	UserID       uint      `json:"userId"       gorm:"not null;index"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`

	Medication Medication `json:"-" gorm:"foreignKey:MedicationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User       User       `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reminder.
func (Reminder) TableName() string { return "pillmate_reminders" }
