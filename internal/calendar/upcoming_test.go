package calendar

import (
	"testing"
	"time"
)

func TestRule(t *testing.T) {
	if got := Rule(3); got != "FREQ=DAILY;INTERVAL=3" {
		t.Fatalf("Rule(3) = %q", got)
	}
}

func TestUpcoming_EveryTwoDays(t *testing.T) {
	after := mustTime(t, "2025-03-13T10:00:00Z")
	got, err := Upcoming("2025-03-13", "12:00", 2, 3, after)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	want := []string{"2025-03-13T12:00:00Z", "2025-03-15T12:00:00Z", "2025-03-17T12:00:00Z"}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences; want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(mustTime(t, want[i])) {
			t.Errorf("occurrence %d = %v; want %s", i, got[i], want[i])
		}
	}
}

func TestUpcoming_SkipsPastOccurrences(t *testing.T) {
	after := mustTime(t, "2025-03-14T13:00:00Z")
	got, err := Upcoming("2025-03-13", "12:00", 1, 2, after)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(mustTime(t, "2025-03-15T12:00:00Z")) {
		t.Fatalf("unexpected occurrences: %v", got)
	}
}

func TestUpcoming_ZeroCountAndBadInput(t *testing.T) {
	got, err := Upcoming("2025-03-13", "12:00", 1, 0, time.Now())
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
	if _, err := Upcoming("2025-13-01", "12:00", 1, 3, time.Now()); err == nil {
		t.Fatalf("expected error for invalid date")
	}
}
