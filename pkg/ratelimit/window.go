package ratelimit

import (
	"math"
	"time"

	"github.com/loopforge/engine/pkg/models"
)

func countSince(ts []time.Time, since time.Time) int {
	n := 0
	for _, t := range ts {
		if t.After(since) {
			n++
		}
	}
	return n
}

func sumCostsSince(entries []models.CostEntry, since time.Time) float64 {
	var sum float64
	for _, e := range entries {
		if e.Timestamp.After(since) {
			sum += e.Amount
		}
	}
	return sum
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func nextUTCMidnight(t time.Time) time.Time {
	return utcMidnight(t).Add(24 * time.Hour)
}

// utcWeekStart returns the most recent Monday 00:00 UTC on or before t.
func utcWeekStart(t time.Time) time.Time {
	day := utcMidnight(t)
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	return day.Add(-time.Duration(offset) * 24 * time.Hour)
}

func utcMonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
