// Package services – MedicationService
//
// MedicationService validates and persists medication stocks. Deleting a
// medication goes through the reminder store so the reminders that use it
// are removed, and their timers cleared, first.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/repo"
)

// MedicationRepo defines the repository contract required by
// MedicationService.
type MedicationRepo interface {
	CreateMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error
	ListMedications(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Medication, error)
	GetMedication(ctx context.Context, db *gorm.DB, id uint) (*domain.Medication, error)
	SaveMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error
}

// GormMedicationRepo adapts the repo package functions to MedicationRepo.
type GormMedicationRepo struct{}

func (GormMedicationRepo) CreateMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return repo.CreateMedication(ctx, db, m)
}

func (GormMedicationRepo) ListMedications(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Medication, error) {
	return repo.ListMedications(ctx, db, userID)
}

func (GormMedicationRepo) GetMedication(ctx context.Context, db *gorm.DB, id uint) (*domain.Medication, error) {
	return repo.GetMedication(ctx, db, id)
}

func (GormMedicationRepo) SaveMedication(ctx context.Context, db *gorm.DB, m *domain.Medication) error {
	return repo.SaveMedication(ctx, db, m)
}

// MedicationDeleter removes a medication and its reminders.
type MedicationDeleter interface {
	DeleteMedication(ctx context.Context, id uint) error
}

const (
	maxNameLen       = 255
	maxIndicationLen = 500
)

// MedicationInput is a validated-by-service creation request.
type MedicationInput struct {
	Name       string
	Indication *string
	Quantity   float64
	Unit       domain.MedicationUnit
	UserID     *uint
}

// MedicationPatch lists the fields to change; nil means unchanged.
// SetIndication distinguishes "clear the indication" from "leave it".
type MedicationPatch struct {
	Name          *string
	SetIndication bool
	Indication    *string
	Quantity      *float64
	Unit          *domain.MedicationUnit
}

// MedicationService provides medication CRUD with ownership checks.
type MedicationService struct {
	DB      *gorm.DB
	Repo    MedicationRepo
	Users   *UserService
	Deleter MedicationDeleter
}

// NewMedicationService constructs a MedicationService.
func NewMedicationService(db *gorm.DB, r MedicationRepo, users *UserService, deleter MedicationDeleter) *MedicationService {
	return &MedicationService{DB: db, Repo: r, Users: users, Deleter: deleter}
}

// List returns the caller's medications.
func (s *MedicationService) List(ctx context.Context, caller *domain.User) ([]domain.Medication, error) {
	return s.Repo.ListMedications(ctx, s.DB, caller.ID)
}

// Create validates in and stores a medication for the resolved owner.
func (s *MedicationService) Create(ctx context.Context, caller *domain.User, in MedicationInput) (*domain.Medication, error) {
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	indication, err := validIndication(in.Indication)
	if err != nil {
		return nil, err
	}
	if !validQuantity(in.Quantity) {
		return nil, invalid("quantity")
	}
	if !in.Unit.Valid() {
		return nil, invalid("unit")
	}
	owner, err := s.Users.ResolveOwner(ctx, caller, in.UserID)
	if err != nil {
		return nil, err
	}

	m := &domain.Medication{
		Name:       name,
		Indication: indication,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
		UserID:     owner.ID,
	}
	if err := s.Repo.CreateMedication(ctx, s.DB, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns a medication visible to caller.
func (s *MedicationService) Get(ctx context.Context, caller *domain.User, id uint) (*domain.Medication, error) {
	m, err := s.Repo.GetMedication(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMedicationNotFound
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.Users.CanAccess(ctx, caller, m.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMedicationNotFound
	}
	return m, nil
}

// Update applies p to a medication visible to caller.
func (s *MedicationService) Update(ctx context.Context, caller *domain.User, id uint, p MedicationPatch) (*domain.Medication, error) {
	m, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if m.Name, err = validName(*p.Name); err != nil {
			return nil, err
		}
	}
	if p.SetIndication {
		if m.Indication, err = validIndication(p.Indication); err != nil {
			return nil, err
		}
	}
	if p.Quantity != nil {
		if !validQuantity(*p.Quantity) {
			return nil, invalid("quantity")
		}
		m.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		if !p.Unit.Valid() {
			return nil, invalid("unit")
		}
		m.Unit = *p.Unit
	}
	if err := s.Repo.SaveMedication(ctx, s.DB, m); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMedicationNotFound
		}
		return nil, err
	}
	return m, nil
}

// Delete removes a medication visible to caller, with its reminders.
func (s *MedicationService) Delete(ctx context.Context, caller *domain.User, id uint) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.Deleter.DeleteMedication(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMedicationNotFound
		}
		return err
	}
	return nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return "", invalid("name")
	}
	return name, nil
}

// validIndication trims the indication; blank becomes nil.
func validIndication(ind *string) (*string, error) {
	if ind == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*ind)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > maxIndicationLen {
		return nil, invalid("indication")
	}
	return &v, nil
}

// validQuantity accepts strictly positive amounts.
func validQuantity(q float64) bool { return q > 0 }
