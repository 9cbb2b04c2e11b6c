// Package calendar computes reminder occurrence instants from a stored
// calendar date ("YYYY-MM-DD") and a wall-clock time of day ("HH:MM").
//
// All functions are pure: the caller supplies "now" and the location, which
// keeps them deterministic under test. Production code passes time.Local (or
// the configured TZ_LOCATION).
package calendar

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// DateLayout is the storage format of Reminder.NextDate.
	DateLayout = "2006-01-02"
	// ClockLayout is the storage format of Reminder.Time.
	ClockLayout = "15:04"
)

var (
	clockRE = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	dateRE  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidTime reports whether s is a 24h "HH:MM" time of day.
func ValidTime(s string) bool { return clockRE.MatchString(s) }

// ValidDate reports whether s is an existing calendar date in DateLayout.
// Dates such as 2025-02-30 are rejected.
func ValidDate(s string) bool {
	if !dateRE.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseClock splits an "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour = int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	minute = int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	return hour, minute, nil
}

// OccurrenceInstant combines a calendar date and a time of day into a point
// in time in loc, with seconds and nanoseconds set to zero.
func OccurrenceInstant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}

// Advance returns the calendar date days after date.
func Advance(date string, days int) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d.AddDate(0, 0, days).Format(DateLayout), nil
}

// NextDate applies the creation rule: today when clock has not passed yet
// today (in now's location), tomorrow otherwise.
func NextDate(now time.Time, clock string) (string, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if now.After(at) {
		at = at.AddDate(0, 0, 1)
	}
	return at.Format(DateLayout), nil
}

// FastForward advances date by freq days as many times as needed for the
// occurrence instant to stop being before now. Elapsed occurrences are
// skipped, never replayed. moved reports whether date changed.
func FastForward(date, clock string, freq int, now time.Time) (next string, moved bool, err error) {
	if freq < 1 {
		return "", false, fmt.Errorf("invalid frequency %d", freq)
	}
	at, err := OccurrenceInstant(date, clock, now.Location())
	if err != nil {
		return "", false, err
	}
	for at.Before(now) {
		at = at.AddDate(0, 0, freq)
		moved = true
	}
	return at.Format(DateLayout), moved, nil
}
