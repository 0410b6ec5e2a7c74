package models

import (
	"testing"
	"time"
)

func TestTransitions_OnlyPendingToTerminal(t *testing.T) {
	all := []Status{StatusPending, StatusCompleted, StatusError}
	for _, from := range all {
		for _, to := range all {
			want := from == StatusPending && (to == StatusCompleted || to == StatusError)
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}

	if _, err := Transition(StatusCompleted, StatusError); err == nil {
		t.Fatalf("expected completed -> error to be rejected")
	}
	got, err := Transition(StatusPending, StatusError)
	if err != nil || got != StatusError {
		t.Fatalf("expected pending -> error, got %s, %v", got, err)
	}
}

func TestNewPendingEntry(t *testing.T) {
	e := NewPendingEntry("user-1", "http://img/1.jpg", "2024-03-05")
	if e.Status != StatusPending {
		t.Fatalf("expected pending, got %s", e.Status)
	}
	if e.Name != PlaceholderName || e.Unit != DefaultUnit {
		t.Fatalf("unexpected placeholder fields: %+v", e)
	}
	if e.KCalories != nil || e.Protein != nil || e.Value != nil {
		t.Fatalf("nutrition fields must start absent")
	}
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on the 4th is already the 5th at UTC+3.
	now := time.Date(2024, 3, 4, 22, 30, 0, 0, time.UTC)

	got, err := NormalizeDate("", now, loc)
	if err != nil || got != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %q (%v)", got, err)
	}

	got, err = NormalizeDate(" 2024-01-31 ", now, loc)
	if err != nil || got != "2024-01-31" {
		t.Fatalf("expected caller date, got %q (%v)", got, err)
	}

	if _, err := NormalizeDate("31.01.2024", now, loc); err == nil {
		t.Fatalf("expected malformed date to be rejected")
	}
}

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2024-03-04": "2024-03-04", // Monday
		"2024-03-06": "2024-03-04",
		"2024-03-10": "2024-03-04", // Sunday
		"2024-03-01": "2024-02-26",
	}
	for in, want := range cases {
		got, err := MondayOf(in)
		if err != nil || got != want {
			t.Errorf("MondayOf(%s) = %s (%v), want %s", in, got, err, want)
		}
	}

	from, to := WeekBounds(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	if from != "2024-03-04" || to != "2024-03-10" {
		t.Fatalf("unexpected week bounds %s..%s", from, to)
	}
}

func intPtr(v int) *int { return &v }

func TestMeanDailyCalories_ExcludesPending(t *testing.T) {
	entries := []FoodEntry{
		{Date: "2024-03-04", Status: StatusCompleted, KCalories: intPtr(200), Value: intPtr(150)}, // 300
		{Date: "2024-03-04", Status: StatusCompleted, KCalories: intPtr(100), Value: intPtr(100)}, // 100
		{Date: "2024-03-05", Status: StatusCompleted, KCalories: intPtr(52), Value: intPtr(200)},  // 104
		{Date: "2024-03-05", Status: StatusPending},
		{Date: "2024-03-06", Status: StatusPending},
		{Date: "2024-03-06", Status: StatusError},
		{Date: "2024-03-20", Status: StatusCompleted, KCalories: intPtr(999), Value: intPtr(999)},
	}

	stats := MeanDailyCalories(entries, "2024-03-04", "2024-03-10")
	if stats.Days != 2 {
		t.Fatalf("expected 2 days with completed entries, got %d", stats.Days)
	}
	if stats.MeanDailyCalories != 252 {
		t.Fatalf("expected 252, got %d", stats.MeanDailyCalories)
	}
	if stats.PendingEntries != 2 || stats.CompletedEntries != 3 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
}
