package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tbourn/pill-mate/internal/calendar"
	"github.com/tbourn/pill-mate/internal/domain"
)

var errBoom = errors.New("boom")

// fakeStore mimics repo.ReminderStore: Save only updates existing rows and
// calls the observer's OnUpdate after the write.
type fakeStore struct {
	mu          sync.Mutex
	reminders   map[uint]domain.Reminder
	medications map[uint]domain.Medication
	users       map[uint]domain.User
	observer    interface{ OnUpdate(domain.Reminder) }

	saves      []domain.Reminder
	loadErr    error
	saveErr    error
	getMedErr  error
	saveMedErr error
	getUserErr error
	medSaves   int
	advances   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reminders:   map[uint]domain.Reminder{},
		medications: map[uint]domain.Medication{},
		users:       map[uint]domain.User{},
	}
}

func (f *fakeStore) LoadAll(ctx context.Context) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]domain.Reminder, 0, len(f.reminders))
	for _, r := range f.reminders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Save(ctx context.Context, r *domain.Reminder) error {
	f.mu.Lock()
	if f.saveErr != nil {
		f.mu.Unlock()
		return f.saveErr
	}
	if _, ok := f.reminders[r.ID]; !ok {
		f.mu.Unlock()
		return errors.New("record not found")
	}
	f.reminders[r.ID] = *r
	f.saves = append(f.saves, *r)
	obs := f.observer
	f.mu.Unlock()
	if obs != nil {
		obs.OnUpdate(*r)
	}
	return nil
}

// AdvanceNextDate mirrors repo.ReminderStore: only NextDate changes, from
// the stored row, and only while it still equals from.
func (f *fakeStore) AdvanceNextDate(ctx context.Context, id uint, from string) (bool, error) {
	f.mu.Lock()
	if f.saveErr != nil {
		f.mu.Unlock()
		return false, f.saveErr
	}
	r, ok := f.reminders[id]
	if !ok || r.NextDate != from {
		f.mu.Unlock()
		return false, nil
	}
	next, err := calendar.Advance(r.NextDate, r.Frequency)
	if err != nil {
		f.mu.Unlock()
		return false, err
	}
	r.NextDate = next
	f.reminders[id] = r
	f.advances++
	obs := f.observer
	f.mu.Unlock()
	if obs != nil {
		obs.OnUpdate(r)
	}
	return true, nil
}

func (f *fakeStore) GetMedication(ctx context.Context, id uint) (*domain.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getMedErr != nil {
		return nil, f.getMedErr
	}
	m, ok := f.medications[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &m, nil
}

func (f *fakeStore) SaveMedication(ctx context.Context, m *domain.Medication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveMedErr != nil {
		return f.saveMedErr
	}
	f.medications[m.ID] = *m
	f.medSaves++
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &u, nil
}

func (f *fakeStore) reminder(id uint) domain.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminders[id]
}

func (f *fakeStore) medication(id uint) domain.Medication {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.medications[id]
}

type notification struct {
	device, title, message string
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []notification
	opened        []string
	played        [][2]string

	notifyErr error
	openErr   error
	playErr   error
	onPlay    func()
}

func (n *fakeNotifier) SendNotification(ctx context.Context, device, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification{device, title, message})
	return n.notifyErr
}

func (n *fakeNotifier) OpenAppOnDevice(ctx context.Context, device string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, device)
	return n.openErr
}

func (n *fakeNotifier) PlayMedia(ctx context.Context, url, entityID string) error {
	n.mu.Lock()
	n.played = append(n.played, [2]string{url, entityID})
	hook := n.onPlay
	err := n.playErr
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}
