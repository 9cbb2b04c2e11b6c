// Package services – ReminderService
//
// ReminderService validates reminder input, enforces ownership and writes
// through the reminder store, whose observers keep the in-memory schedule in
// step with every change. New reminders start at the next occurrence of
// their time of day; moving a reminder into the past is rejected.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/calendar"
	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/repo"
)

// ReminderStore is the reminder write path (see repo.ReminderStore).
type ReminderStore interface {
	Create(ctx context.Context, r *domain.Reminder) error
	Save(ctx context.Context, r *domain.Reminder) error
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*domain.Reminder, error)
	List(ctx context.Context, userID uint) ([]domain.Reminder, error)
}

// MaxOccurrences bounds Occurrences.
const MaxOccurrences = 50

// ReminderInput is a creation request.
type ReminderInput struct {
	Time         string
	Frequency    int
	Quantity     float64
	MedicationID uint
	UserID       *uint
}

// ReminderPatch lists the fields to change; nil means unchanged.
type ReminderPatch struct {
	Time         *string
	Frequency    *int
	Quantity     *float64
	NextDate     *string
	MedicationID *uint
}

// ReminderService provides reminder CRUD with ownership checks.
type ReminderService struct {
	DB       *gorm.DB
	Store    ReminderStore
	Meds     MedicationRepo
	Users    *UserService
	Location *time.Location
	Now      func() time.Time
}

// NewReminderService constructs a ReminderService using the host clock.
func NewReminderService(db *gorm.DB, store ReminderStore, meds MedicationRepo, users *UserService, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{DB: db, Store: store, Meds: meds, Users: users, Location: loc, Now: time.Now}
}

func (s *ReminderService) now() time.Time { return s.Now().In(s.Location) }

func (s *ReminderService) tracer() trace.Tracer { return otel.Tracer("services/ReminderService") }

// List returns the caller's reminders.
func (s *ReminderService) List(ctx context.Context, caller *domain.User) ([]domain.Reminder, error) {
	return s.Store.List(ctx, caller.ID)
}

// ListFor returns the reminders of targetID as seen by caller: their own,
// or those of a user they help.
func (s *ReminderService) ListFor(ctx context.Context, caller *domain.User, targetID uint) ([]domain.Reminder, error) {
	if targetID == caller.ID {
		return s.Store.List(ctx, caller.ID)
	}
	if caller.Role == domain.RoleHelped {
		return nil, ErrForbidden
	}
	ok, err := s.Users.Repo.IsHelping(ctx, s.DB, caller.ID, targetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.Store.List(ctx, targetID)
}

// Create validates in, resolves the owner and stores the reminder. Its next
// date is today when the time of day is still ahead, tomorrow otherwise.
func (s *ReminderService) Create(ctx context.Context, caller *domain.User, in ReminderInput) (*domain.Reminder, error) {
	ctx, span := s.tracer().Start(ctx, "Create", trace.WithAttributes(
		attribute.Int64("user.id", int64(caller.ID)),
		attribute.Int64("medication.id", int64(in.MedicationID)),
	))
	defer span.End()

	if !calendar.ValidTime(in.Time) {
		return nil, invalid("time")
	}
	if in.Frequency < 1 {
		return nil, invalid("frequency")
	}
	if !validQuantity(in.Quantity) {
		return nil, invalid("quantity")
	}
	owner, err := s.Users.ResolveOwner(ctx, caller, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkMedication(ctx, in.MedicationID, owner.ID); err != nil {
		return nil, err
	}

	next, err := calendar.NextDate(s.now(), in.Time)
	if err != nil {
		return nil, err
	}
	r := &domain.Reminder{
		Time:         in.Time,
		Frequency:    in.Frequency,
		Quantity:     in.Quantity,
		NextDate:     next,
		MedicationID: in.MedicationID,
		UserID:       owner.ID,
	}
	if err := s.Store.Create(ctx, r); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("reminder.id", int64(r.ID)))
	return r, nil
}

// Get returns a reminder visible to caller.
func (s *ReminderService) Get(ctx context.Context, caller *domain.User, id uint) (*domain.Reminder, error) {
	r, err := s.Store.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.Users.CanAccess(ctx, caller, r.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReminderNotFound
	}
	return r, nil
}

// Update applies p. A new time that leaves the stored occurrence in the past
// rolls the next date forward with the creation rule; an explicit next date
// must not be in the past.
func (s *ReminderService) Update(ctx context.Context, caller *domain.User, id uint, p ReminderPatch) (*domain.Reminder, error) {
	ctx, span := s.tracer().Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("user.id", int64(caller.ID)),
		attribute.Int64("reminder.id", int64(id)),
	))
	defer span.End()

	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if p.Time != nil {
		if !calendar.ValidTime(*p.Time) {
			return nil, invalid("time")
		}
		r.Time = *p.Time
	}
	if p.Frequency != nil {
		if *p.Frequency < 1 {
			return nil, invalid("frequency")
		}
		r.Frequency = *p.Frequency
	}
	if p.Quantity != nil {
		if !validQuantity(*p.Quantity) {
			return nil, invalid("quantity")
		}
		r.Quantity = *p.Quantity
	}

	switch {
	case p.NextDate != nil:
		if !calendar.ValidDate(*p.NextDate) {
			return nil, invalid("nextDate")
		}
		at, err := calendar.OccurrenceInstant(*p.NextDate, r.Time, s.Location)
		if err != nil {
			return nil, err
		}
		if at.Before(now) {
			return nil, ErrNextDateInPast
		}
		r.NextDate = *p.NextDate
	case p.Time != nil:
		at, err := calendar.OccurrenceInstant(r.NextDate, r.Time, s.Location)
		if err != nil {
			return nil, err
		}
		if at.Before(now) {
			if r.NextDate, err = calendar.NextDate(now, r.Time); err != nil {
				return nil, err
			}
		}
	}

	if p.MedicationID != nil {
		if err := s.checkMedication(ctx, *p.MedicationID, r.UserID); err != nil {
			return nil, err
		}
		r.MedicationID = *p.MedicationID
	}

	if err := s.Store.Save(ctx, r); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return r, nil
}

// Delete removes a reminder visible to caller.
func (s *ReminderService) Delete(ctx context.Context, caller *domain.User, id uint) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrReminderNotFound
		}
		return err
	}
	return nil
}

// Occurrences lists the next count occurrence instants of a reminder.
func (s *ReminderService) Occurrences(ctx context.Context, caller *domain.User, id uint, count int) ([]time.Time, error) {
	if count < 1 || count > MaxOccurrences {
		return nil, invalid("count")
	}
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return calendar.Upcoming(r.NextDate, r.Time, r.Frequency, count, s.now())
}

// checkMedication ensures medicationID exists and belongs to ownerID.
func (s *ReminderService) checkMedication(ctx context.Context, medicationID, ownerID uint) error {
	m, err := s.Meds.GetMedication(ctx, s.DB, medicationID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMedicationNotFound
	}
	if err != nil {
		return err
	}
	if m.UserID != ownerID {
		return ErrMedicationNotFound
	}
	return nil
}
