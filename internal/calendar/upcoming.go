package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Rule returns the RFC 5545 recurrence of a reminder firing every freq days.
func Rule(freq int) string { return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", freq) }

// Upcoming lists up to n occurrence instants at or after after, starting from
// the reminder's current (date, clock) occurrence and recurring every freq
// days. The wall-clock time is kept across DST changes.
func Upcoming(date, clock string, freq, n int, after time.Time) ([]time.Time, error) {
	if n <= 0 {
		return []time.Time{}, nil
	}
	start, err := OccurrenceInstant(date, clock, after.Location())
	if err != nil {
		return nil, err
	}
	opt, err := rrule.StrToROption(Rule(freq))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, n)
	cur, inc := after, true
	for len(out) < n {
		next := rule.After(cur, inc)
		if next.IsZero() {
			break
		}
		out = append(out, next)
		cur, inc = next, false
	}
	return out, nil
}
