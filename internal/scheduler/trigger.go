package scheduler

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/number"

	"github.com/tbourn/pill-mate/internal/domain"
)

// trigger runs the side effects of one occurrence of r. Every collaborator
// failure is logged and counted; the remaining independent steps still run.
func (s *Scheduler) trigger(ctx context.Context, r domain.Reminder) {
	ctx, span := s.tracer.Start(ctx, "reminder.trigger", trace.WithAttributes(
		attribute.Int64("reminder.id", int64(r.ID)),
		attribute.Int64("user.id", int64(r.UserID)),
		attribute.String("reminder.next_date", r.NextDate),
	))
	defer span.End()

	lg := s.log.With().Uint("reminder_id", r.ID).Uint("user_id", r.UserID).Logger()
	lg.Info().Str("target", r.NextDate+" "+r.Time).Msg("reminder triggered")
	triggersTotal.Inc()

	user, err := s.store.GetUser(ctx, r.UserID)
	if err != nil {
		s.stepFailed(span, &lg, "load_user", err)
		user = nil
	}

	med, err := s.store.GetMedication(ctx, r.MedicationID)
	if err != nil {
		s.stepFailed(span, &lg, "load_medication", err)
		med = nil
	}

	if med != nil {
		med.Quantity = Decrement(med.Quantity, r.Quantity)
		if err := s.store.SaveMedication(ctx, med); err != nil {
			s.stepFailed(span, &lg, "save_medication", err)
		}
	}

	if user != nil && user.MobileAppDevice != nil && strings.TrimSpace(*user.MobileAppDevice) != "" {
		msg := fallbackMessage(r)
		if med != nil {
			msg = s.Message(r, *med)
		}
		s.notify(ctx, span, &lg, *user.MobileAppDevice, msg)
	}

	if err := s.notifier.PlayMedia(ctx, s.alarmURL, s.mediaPlayer); err != nil {
		s.stepFailed(span, &lg, "play_media", err)
	}

	// Only next_date is written, from the stored row, so an edit made while
	// this ran is kept; the edit has already re-armed the reminder.
	advanced, err := s.store.AdvanceNextDate(ctx, r.ID, r.NextDate)
	if err != nil {
		s.stepFailed(span, &lg, "save_reminder", err)
		return
	}
	if !advanced {
		lg.Info().Msg("reminder changed or removed while firing, stored schedule kept")
		return
	}
	lg.Debug().Str("from", r.NextDate).Msg("reminder advanced")
}

// notify sends the notification and the open-app command concurrently.
func (s *Scheduler) notify(ctx context.Context, span trace.Span, lg *zerolog.Logger, device, msg string) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.notifier.SendNotification(ctx, device, NotificationTitle, msg); err != nil {
			s.stepFailed(span, lg, "send_notification", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.notifier.OpenAppOnDevice(ctx, device); err != nil {
			s.stepFailed(span, lg, "open_app", err)
		}
	}()
	wg.Wait()
}

func (s *Scheduler) stepFailed(span trace.Span, lg *zerolog.Logger, step string, err error) {
	triggerErrors.WithLabelValues(step).Inc()
	span.RecordError(err, trace.WithAttributes(attribute.String("step", step)))
	span.SetStatus(codes.Error, step)
	lg.Error().Err(err).Str("step", step).Msg("reminder trigger step failed")
}

// Message composes the notification text for one occurrence.
func (s *Scheduler) Message(r domain.Reminder, m domain.Medication) string {
	unit := m.Unit.Label(r.Quantity > 1)
	qty := s.printer.Sprint(number.Decimal(r.Quantity, number.MaxFractionDigits(2)))
	msg := "Il est " + r.Time + ".\nPrends " + qty + " " + unit + " de " + m.Name + "."
	if m.Indication != nil && *m.Indication != "" {
		msg += "\nIndication: " + *m.Indication
	}
	return msg
}

// fallbackMessage is sent when the medication could not be loaded.
func fallbackMessage(r domain.Reminder) string {
	return "Il est " + r.Time + ".\nC'est l'heure de prendre ton médicament."
}

// Decrement subtracts taken from stock, floored at zero and rounded to the
// two decimals the quantity columns hold.
func Decrement(stock, taken float64) float64 {
	return math.Max(0, math.Round((stock-taken)*100)/100)
}
