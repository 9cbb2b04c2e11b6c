package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/text/language"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/timer"
	"github.com/tbourn/pill-mate/internal/timer/timertest"
)

func strPtr(s string) *string { return &s }

type harness struct {
	clock    *timertest.Clock
	store    *fakeStore
	notifier *fakeNotifier
	s        *Scheduler
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	h := &harness{
		clock:    timertest.New(now),
		store:    newFakeStore(),
		notifier: &fakeNotifier{},
	}
	h.s = New(h.store, h.notifier, Options{
		Clock:       h.clock,
		Location:    time.UTC,
		AlarmURL:    "http://localhost:3000/api/static/alarm.mp3",
		MediaPlayer: "media_player.vlc_telnet",
		Locale:      language.French,
	})
	h.store.observer = h.s
	t.Cleanup(func() { _ = h.s.Stop(context.Background()) })
	return h
}

func (h *harness) seed(r domain.Reminder) {
	h.store.reminders[r.ID] = r
}

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		t.Fatalf("parse %q: %v", v, err)
	}
	return ts
}

func TestOnCreate_ArmsUntilNextOccurrence(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, Quantity: 1, NextDate: "2025-03-13", MedicationID: 1, UserID: 1}
	h.seed(r)

	h.s.OnCreate(r)

	if h.s.Armed() != 1 {
		t.Fatalf("armed = %d, want 1", h.s.Armed())
	}
	due, ok := h.s.Due(1)
	if !ok || !due.Equal(mustTime(t, "2025-03-13T12:00:00Z")) {
		t.Fatalf("due = %v (%v)", due, ok)
	}
	if got := h.clock.Armed(); len(got) != 1 || got[0] != 2*time.Hour {
		t.Fatalf("armed delays = %v, want [2h]", got)
	}
}

func TestOnCreate_TwiceKeepsSingleTimer(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, NextDate: "2025-03-13"}

	h.s.OnCreate(r)
	h.s.OnCreate(r)

	if h.s.Armed() != 1 || h.clock.Pending() != 1 {
		t.Fatalf("armed=%d pending=%d, want 1/1", h.s.Armed(), h.clock.Pending())
	}
}

func TestOnCreate_FarFutureChainsLinks(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 7, Time: "10:00", Frequency: 1, NextDate: "2025-06-01"}

	h.s.OnCreate(r)

	got := h.clock.Armed()
	if len(got) != 1 || got[0] != timer.MaxNativeDelay {
		t.Fatalf("first link = %v, want [%v]", got, timer.MaxNativeDelay)
	}
	due, _ := h.s.Due(7)
	if !due.Equal(mustTime(t, "2025-06-01T10:00:00Z")) {
		t.Fatalf("due = %v", due)
	}
}

func TestOnCreate_InvalidRowIsNotArmed(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	h.s.OnCreate(domain.Reminder{ID: 1, Time: "25:00", Frequency: 1, NextDate: "2025-03-13"})
	if h.s.Armed() != 0 {
		t.Fatalf("armed = %d, want 0", h.s.Armed())
	}
}

func TestOnUpdate_ReplacesTimer(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, NextDate: "2025-03-13"}
	h.s.OnCreate(r)

	r.Time = "18:00"
	h.s.OnUpdate(r)

	if h.s.Armed() != 1 || h.clock.Pending() != 1 {
		t.Fatalf("armed=%d pending=%d, want 1/1", h.s.Armed(), h.clock.Pending())
	}
	due, _ := h.s.Due(1)
	if !due.Equal(mustTime(t, "2025-03-13T18:00:00Z")) {
		t.Fatalf("due = %v, want 18:00", due)
	}
	if got := h.clock.Armed(); got[len(got)-1] != 8*time.Hour {
		t.Fatalf("last delay = %v, want 8h", got[len(got)-1])
	}
}

func TestOnUpdate_UnchangedInstantStillRearms(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, Quantity: 1, NextDate: "2025-03-13"}
	h.s.OnCreate(r)

	r.Quantity = 3
	h.s.OnUpdate(r)

	if len(h.clock.Armed()) != 2 || h.clock.Pending() != 1 {
		t.Fatalf("arms=%d pending=%d, want 2/1", len(h.clock.Armed()), h.clock.Pending())
	}
}

func TestOnUpdate_WithoutTimerArms(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	h.s.OnUpdate(domain.Reminder{ID: 4, Time: "12:00", Frequency: 1, NextDate: "2025-03-13"})
	if _, ok := h.s.Due(4); !ok {
		t.Fatal("expected timer after update")
	}
}

func TestOnDelete_ClearsTimer(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, NextDate: "2025-03-13"}
	h.s.OnCreate(r)

	h.s.OnDelete(r)

	if h.s.Armed() != 0 || h.clock.Pending() != 0 {
		t.Fatalf("armed=%d pending=%d, want 0/0", h.s.Armed(), h.clock.Pending())
	}
	h.clock.Advance(48 * time.Hour)
	if len(h.notifier.played) != 0 {
		t.Fatal("deleted reminder fired")
	}
}

func TestOnDelete_UnknownReminderPanics(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	h.s.OnDelete(domain.Reminder{ID: 99})
}

func TestOnDelete_DuringTriggerDoesNotPanic(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	r := domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, NextDate: "2025-03-13", MedicationID: 1, UserID: 1}
	h.seed(r)
	h.notifier.onPlay = func() {
		h.s.OnDelete(r)
		h.store.mu.Lock()
		delete(h.store.reminders, r.ID)
		h.store.mu.Unlock()
	}
	h.s.OnCreate(r)

	h.clock.Advance(2 * time.Hour)

	if h.s.Armed() != 0 {
		t.Fatalf("armed = %d, want 0 after delete", h.s.Armed())
	}
}

func TestBootstrap_FastForwardsAndArms(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-15T10:00:00Z"))
	h.seed(domain.Reminder{ID: 1, Time: "08:00", Frequency: 1, NextDate: "2025-03-13"})
	h.seed(domain.Reminder{ID: 2, Time: "12:00", Frequency: 2, NextDate: "2025-03-13"})
	h.seed(domain.Reminder{ID: 3, Time: "08:00", Frequency: 2, NextDate: "2025-03-14"})
	h.seed(domain.Reminder{ID: 4, Time: "14:00", Frequency: 1, NextDate: "2025-03-15"})

	before := testutil.ToFloat64(fastForwards)
	if err := h.s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	want := map[uint]string{1: "2025-03-16", 2: "2025-03-15", 3: "2025-03-16", 4: "2025-03-15"}
	for id, date := range want {
		if got := h.store.reminder(id).NextDate; got != date {
			t.Errorf("reminder %d nextDate = %s, want %s", id, got, date)
		}
	}
	if len(h.store.saves) != 3 {
		t.Errorf("saves = %d, want 3 (reminder 4 is untouched)", len(h.store.saves))
	}
	if h.s.Armed() != 4 || h.clock.Pending() != 4 {
		t.Errorf("armed=%d pending=%d, want 4/4", h.s.Armed(), h.clock.Pending())
	}
	if due, _ := h.s.Due(4); !due.Equal(mustTime(t, "2025-03-15T14:00:00Z")) {
		t.Errorf("reminder 4 due = %v", due)
	}
	if due, _ := h.s.Due(2); !due.Equal(mustTime(t, "2025-03-15T12:00:00Z")) {
		t.Errorf("reminder 2 due = %v", due)
	}
	if got := testutil.ToFloat64(fastForwards) - before; got != 3 {
		t.Errorf("fast forward counter delta = %v, want 3", got)
	}
}

func TestBootstrap_WeeklyReminderFiveDaysLate(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-06T09:00:00Z"))
	h.seed(domain.Reminder{ID: 1, Time: "08:00", Frequency: 7, NextDate: "2025-03-01"})

	if err := h.s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := h.store.reminder(1).NextDate; got != "2025-03-08" {
		t.Fatalf("nextDate = %s, want 2025-03-08", got)
	}
	if due, _ := h.s.Due(1); !due.Equal(mustTime(t, "2025-03-08T08:00:00Z")) {
		t.Fatalf("due = %v", due)
	}
}

func TestBootstrap_LoadError(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-15T10:00:00Z"))
	h.store.loadErr = errBoom
	if err := h.s.Bootstrap(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
}

func TestBootstrap_SaveError(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-15T10:00:00Z"))
	h.seed(domain.Reminder{ID: 1, Time: "08:00", Frequency: 1, NextDate: "2025-03-13"})
	h.store.saveErr = errBoom
	if err := h.s.Bootstrap(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
}

func TestStop_ClearsTimersAndIgnoresHooks(t *testing.T) {
	h := newHarness(t, mustTime(t, "2025-03-13T10:00:00Z"))
	h.s.OnCreate(domain.Reminder{ID: 1, Time: "12:00", Frequency: 1, NextDate: "2025-03-13"})

	if err := h.s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if h.s.Armed() != 0 || h.clock.Pending() != 0 {
		t.Fatalf("armed=%d pending=%d after stop", h.s.Armed(), h.clock.Pending())
	}
	h.s.OnCreate(domain.Reminder{ID: 2, Time: "12:00", Frequency: 1, NextDate: "2025-03-13"})
	if h.s.Armed() != 0 {
		t.Fatal("hook armed a timer after Stop")
	}
	h.s.OnDelete(domain.Reminder{ID: 1})
	if err := h.s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
