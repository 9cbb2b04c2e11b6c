package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/internal/domain"
)

// ReminderObserver is notified after a reminder change is durable.
type ReminderObserver interface {
	OnCreate(r domain.Reminder)
	OnUpdate(r domain.Reminder)
	OnDelete(r domain.Reminder)
}

// ReminderStore is the only write path for reminders. Every successful
// create, update and delete is reported to the registered observers before
// the method returns, so in-memory schedules never drift from storage.
//
// It also exposes the medication and user reads the scheduler needs.
type ReminderStore struct {
	db *gorm.DB

	mu        sync.RWMutex
	observers []ReminderObserver
}

// NewReminderStore returns a store without observers.
func NewReminderStore(db *gorm.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// Observe registers o. Register observers before serving traffic.
func (s *ReminderStore) Observe(o ReminderObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *ReminderStore) each(f func(ReminderObserver)) {
	s.mu.RLock()
	obs := append([]ReminderObserver(nil), s.observers...)
	s.mu.RUnlock()
	for _, o := range obs {
		f(o)
	}
}

// Create inserts r, fills its ID and fires OnCreate.
func (s *ReminderStore) Create(ctx context.Context, r *domain.Reminder) error {
	if err := insertReminder(ctx, s.db, r); err != nil {
		return err
	}
	row := *r
	s.each(func(o ReminderObserver) { o.OnCreate(row) })
	return nil
}

// Save updates an existing reminder and fires OnUpdate. It never inserts;
// a reminder deleted in the meantime yields ErrNotFound and no hook.
func (s *ReminderStore) Save(ctx context.Context, r *domain.Reminder) error {
	if err := updateReminder(ctx, s.db, r); err != nil {
		return err
	}
	row := *r
	s.each(func(o ReminderObserver) { o.OnUpdate(row) })
	return nil
}

// AdvanceNextDate moves a fired reminder's next date one period past from
// and fires OnUpdate with the stored row. Only next_date is written. It
// reports false, without writing or notifying, when the reminder is gone
// or its next date was changed by someone else meanwhile.
func (s *ReminderStore) AdvanceNextDate(ctx context.Context, id uint, from string) (bool, error) {
	r, err := advanceReminder(ctx, s.db, id, from)
	if errors.Is(err, ErrNotFound) || errors.Is(err, errStale) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	row := *r
	s.each(func(o ReminderObserver) { o.OnUpdate(row) })
	return true, nil
}

// Delete removes the reminder and fires OnDelete with the deleted row.
func (s *ReminderStore) Delete(ctx context.Context, id uint) error {
	r, err := GetReminder(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := deleteReminder(ctx, s.db, id); err != nil {
		return err
	}
	s.each(func(o ReminderObserver) { o.OnDelete(*r) })
	return nil
}

// DeleteMedication removes a medication together with its reminders. The
// reminders go through Delete first so their observers run.
func (s *ReminderStore) DeleteMedication(ctx context.Context, id uint) error {
	if _, err := GetMedication(ctx, s.db, id); err != nil {
		return err
	}
	reminders, err := listRemindersByMedication(ctx, s.db, id)
	if err != nil {
		return err
	}
	for _, r := range reminders {
		if err := s.Delete(ctx, r.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete reminder %d: %w", r.ID, err)
		}
	}
	return deleteMedication(ctx, s.db, id)
}

// Get fetches one reminder.
func (s *ReminderStore) Get(ctx context.Context, id uint) (*domain.Reminder, error) {
	return GetReminder(ctx, s.db, id)
}

// List returns the reminders owned by userID.
func (s *ReminderStore) List(ctx context.Context, userID uint) ([]domain.Reminder, error) {
	return ListReminders(ctx, s.db, userID)
}

// LoadAll returns every stored reminder.
func (s *ReminderStore) LoadAll(ctx context.Context) ([]domain.Reminder, error) {
	return ListAllReminders(ctx, s.db)
}

// GetMedication fetches a medication by id.
func (s *ReminderStore) GetMedication(ctx context.Context, id uint) (*domain.Medication, error) {
	return GetMedication(ctx, s.db, id)
}

// SaveMedication updates an existing medication.
func (s *ReminderStore) SaveMedication(ctx context.Context, m *domain.Medication) error {
	return SaveMedication(ctx, s.db, m)
}

// GetUser fetches a user by id.
func (s *ReminderStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return GetUser(ctx, s.db, id)
}
