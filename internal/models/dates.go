package models

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeDate returns the trimmed caller date, or today in loc when the
// caller sent nothing.
func NormalizeDate(raw string, now time.Time, loc *time.Location) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if loc == nil {
			loc = time.Local
		}
		return now.In(loc).Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD, got %q", raw)
	}
	return raw, nil
}

// MondayOf returns the ISO week start for a YYYY-MM-DD date.
func MondayOf(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return mondayOf(t).Format(DateLayout), nil
}

// WeekBounds returns the Monday and Sunday of the week containing t.
func WeekBounds(t time.Time) (string, string) {
	monday := mondayOf(t)
	return monday.Format(DateLayout), monday.AddDate(0, 0, 6).Format(DateLayout)
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}
