package models

import "math"

type CalorieStats struct {
	From              string `json:"from"`
	To                string `json:"to"`
	MeanDailyCalories int    `json:"meanDailyCalories"`
	Days              int    `json:"days"`
	CompletedEntries  int    `json:"completedEntries"`
	PendingEntries    int    `json:"pendingEntries"`
}

// MeanDailyCalories averages kcal eaten per day over completed entries only.
// Pending and errored entries carry placeholder nutrition and are counted
// separately instead of being folded into the total.
func MeanDailyCalories(entries []FoodEntry, from, to string) CalorieStats {
	stats := CalorieStats{From: from, To: to}
	days := make(map[string]struct{})
	var total float64

	for _, e := range entries {
		if e.Date < from || e.Date > to {
			continue
		}
		switch e.Status {
		case StatusPending:
			stats.PendingEntries++
			continue
		case StatusCompleted:
		default:
			continue
		}
		stats.CompletedEntries++
		days[e.Date] = struct{}{}
		if e.KCalories != nil && e.Value != nil {
			total += float64(*e.KCalories) * float64(*e.Value) / 100
		}
	}

	stats.Days = len(days)
	if stats.Days > 0 {
		stats.MeanDailyCalories = int(math.Round(total / float64(stats.Days)))
	}
	return stats
}
