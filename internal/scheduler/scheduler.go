// Package scheduler keeps one live timer per persisted reminder and runs the
// trigger pipeline when a reminder comes due.
//
// The Scheduler owns the registry (reminder id -> timer handle). The
// persistence layer calls OnCreate / OnUpdate / OnDelete after each durable
// reminder change; Bootstrap rebuilds the registry from storage at start-up.
// Nothing about timers is persisted.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/pill-mate/internal/calendar"
	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/timer"
)

// Store is the persistence the scheduler reads and writes.
//
// Save and AdvanceNextDate must only update an existing row and must call
// OnUpdate once the change is durable; that is how a fast-forwarded or fired
// reminder gets its next timer. AdvanceNextDate writes next_date alone, and
// only while it still equals from; otherwise it reports false and does
// nothing.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.Reminder, error)
	Save(ctx context.Context, r *domain.Reminder) error
	AdvanceNextDate(ctx context.Context, id uint, from string) (bool, error)
	GetMedication(ctx context.Context, id uint) (*domain.Medication, error)
	SaveMedication(ctx context.Context, m *domain.Medication) error
	GetUser(ctx context.Context, id uint) (*domain.User, error)
}

// Notifier dispatches reminder side effects to the home-automation hub.
type Notifier interface {
	SendNotification(ctx context.Context, device, title, message string) error
	OpenAppOnDevice(ctx context.Context, device string) error
	PlayMedia(ctx context.Context, url, entityID string) error
}

// Options tunes a Scheduler. Zero values pick the production defaults.
type Options struct {
	Clock          timer.Clock    // defaults to timer.System
	Location       *time.Location // defaults to time.Local
	AlarmURL       string         // media played on every trigger
	MediaPlayer    string         // media_player entity receiving AlarmURL
	Locale         language.Tag   // number formatting in messages
	TriggerTimeout time.Duration  // bound on one trigger pipeline run
}

// NotificationTitle is the title of every reminder notification.
const NotificationTitle = "Pill Mate"

// Scheduler is safe for concurrent use.
type Scheduler struct {
	store    Store
	notifier Notifier

	clock       timer.Clock
	loc         *time.Location
	alarmURL    string
	mediaPlayer string
	timeout     time.Duration
	printer     *message.Printer

	log    zerolog.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	timers  map[uint]*timer.Handle
	firing  map[uint]int
	stopped bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Scheduler with an empty registry. Call Bootstrap once the
// store is ready.
func New(store Store, notifier Notifier, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = timer.System
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TriggerTimeout <= 0 {
		opts.TriggerTimeout = 30 * time.Second
	}
	if opts.Locale == language.Und {
		opts.Locale = language.French
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:       store,
		notifier:    notifier,
		clock:       opts.Clock,
		loc:         opts.Location,
		alarmURL:    opts.AlarmURL,
		mediaPlayer: opts.MediaPlayer,
		timeout:     opts.TriggerTimeout,
		printer:     message.NewPrinter(opts.Locale),
		log:         log.With().Str("component", "scheduler").Logger(),
		tracer:      otel.Tracer("github.com/tbourn/pill-mate/internal/scheduler"),
		timers:      make(map[uint]*timer.Handle),
		firing:      make(map[uint]int),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// OnCreate arms a timer for a newly stored reminder.
func (s *Scheduler) OnCreate(r domain.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[r.ID]; ok {
		s.log.Warn().Uint("reminder_id", r.ID).Msg("create for a reminder that already has a timer")
		old.Clear()
		delete(s.timers, r.ID)
	}
	s.armLocked(r)
}

// OnUpdate replaces the reminder's timer using the row's current time and
// next date. Any update re-arms, even when the instant did not move.
func (s *Scheduler) OnUpdate(r domain.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[r.ID]; ok {
		old.Clear()
		delete(s.timers, r.ID)
		s.log.Debug().Uint("reminder_id", r.ID).Msg("reminder timer removed")
	}
	s.armLocked(r)
}

// OnDelete clears the reminder's timer. A reminder that is neither armed nor
// currently firing means the registry and storage disagree; that is a bug,
// and OnDelete panics. After Stop it does nothing.
func (s *Scheduler) OnDelete(r domain.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.timers[r.ID]
	if !ok {
		if s.stopped || s.firing[r.ID] > 0 {
			return
		}
		panic(fmt.Sprintf("scheduler: no timer registered for deleted reminder %d", r.ID))
	}
	h.Clear()
	delete(s.timers, r.ID)
	timersArmed.Set(float64(len(s.timers)))
	s.log.Debug().Uint("reminder_id", r.ID).Msg("reminder timer removed")
}

// armLocked arms r and registers the handle. s.mu must be held.
func (s *Scheduler) armLocked(r domain.Reminder) {
	if s.stopped {
		return
	}
	at, err := calendar.OccurrenceInstant(r.NextDate, r.Time, s.loc)
	if err != nil {
		s.log.Error().Err(err).Uint("reminder_id", r.ID).Msg("cannot compute occurrence, reminder not armed")
		return
	}
	delay := at.Sub(s.clock.Now())

	var h *timer.Handle
	h = timer.Set(s.clock, delay, func() { s.fire(r, &h) })
	s.timers[r.ID] = h
	timersArmed.Set(float64(len(s.timers)))

	s.log.Debug().
		Uint("reminder_id", r.ID).
		Time("due", at).
		Dur("delay", delay).
		Msg("reminder timer armed")
}

// fire is the timer callback: it drops the registry entry owned by *h and
// runs the pipeline to completion. *h is read under s.mu, which armLocked
// holds until the handle is stored. A handle that is no longer registered
// lost a race with OnUpdate or OnDelete and does nothing.
func (s *Scheduler) fire(r domain.Reminder, h **timer.Handle) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if cur, ok := s.timers[r.ID]; !ok || cur != *h {
		s.mu.Unlock()
		s.log.Debug().Uint("reminder_id", r.ID).Msg("superseded timer fired, ignored")
		return
	}
	delete(s.timers, r.ID)
	timersArmed.Set(float64(len(s.timers)))
	s.firing[r.ID]++
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.firing[r.ID]--; s.firing[r.ID] <= 0 {
			delete(s.firing, r.ID)
		}
		s.mu.Unlock()
		s.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	s.trigger(ctx, r)
}

// Bootstrap loads every reminder, skips occurrences missed while the process
// was down and arms one timer per reminder. Reminders whose next date had to
// move are saved, and the store's update hook arms them. Any storage error is
// returned: the caller must not run with a partial schedule.
func (s *Scheduler) Bootstrap(ctx context.Context) error {
	reminders, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	now := s.clock.Now().In(s.loc)

	var moved int
	for i := range reminders {
		r := reminders[i]
		next, changed, err := calendar.FastForward(r.NextDate, r.Time, r.Frequency, now)
		if err != nil {
			return fmt.Errorf("reminder %d: %w", r.ID, err)
		}
		if !changed {
			s.OnCreate(r)
			continue
		}
		s.log.Info().
			Uint("reminder_id", r.ID).
			Str("from", r.NextDate).
			Str("to", next).
			Msg("skipping missed occurrences")
		r.NextDate = next
		if err := s.store.Save(ctx, &r); err != nil {
			return fmt.Errorf("save reminder %d: %w", r.ID, err)
		}
		fastForwards.Inc()
		moved++
	}

	s.log.Info().
		Int("reminders", len(reminders)).
		Int("fast_forwarded", moved).
		Int("armed", s.Armed()).
		Msg("scheduler bootstrapped")
	return nil
}

// Armed returns the number of registered timers.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Due returns when the reminder's timer fires, if one is armed.
func (s *Scheduler) Due(id uint) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.timers[id]
	if !ok {
		return time.Time{}, false
	}
	return h.Due(), true
}

// Stop clears every timer and waits for in-flight triggers until ctx ends.
// Hooks called after Stop are ignored.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for id, h := range s.timers {
		h.Clear()
		delete(s.timers, id)
	}
	timersArmed.Set(0)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
