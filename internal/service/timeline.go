package service

import (
	"fmt"
	"time"

	"github.com/onstage-hq/onstage-api/internal/models"
)

// SessionStartFunc resolves the wall-clock start of a (day, session).
type SessionStartFunc func(day, session int) time.Time

// ComputeStartTimes derives the start time of every item: within each
// (day, session) the n-th item starts at the session start plus the summed
// durations of the items before it. Pure, O(n); an empty input yields an empty
// map and zero-duration items are legal.
func ComputeStartTimes(items []models.ScheduleItem, startFor SessionStartFunc) map[string]time.Time {
	times := make(map[string]time.Time, len(items))
	for _, key := range sessionKeys(items) {
		cursor := startFor(key.Day, key.Session)
		for _, item := range sessionItems(items, key) {
			times[item.ID] = cursor
			cursor = cursor.Add(time.Duration(item.DurationMinutes) * time.Minute)
		}
	}
	return times
}

// SessionStarts builds a SessionStartFunc from the schedule's first-day date
// and configured per-session clock times ("15:04"). Sessions beyond the
// configured list reuse the last clock time; a malformed or empty list falls
// back to 08:00.
func SessionStarts(startDate time.Time, clockTimes []string) SessionStartFunc {
	clocks := make([]time.Duration, 0, len(clockTimes))
	for _, raw := range clockTimes {
		var hh, mm int
		if _, err := fmt.Sscanf(raw, "%d:%d", &hh, &mm); err != nil {
			continue
		}
		if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			continue
		}
		clocks = append(clocks, time.Duration(hh)*time.Hour+time.Duration(mm)*time.Minute)
	}
	if len(clocks) == 0 {
		clocks = []time.Duration{8 * time.Hour}
	}

	day0 := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	return func(day, session int) time.Time {
		idx := session - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(clocks) {
			idx = len(clocks) - 1
		}
		return day0.AddDate(0, 0, day-1).Add(clocks[idx])
	}
}

// FixedSessionStart starts every session at the same instant. Used when the
// caller supplies an explicit session start for a single-day view.
func FixedSessionStart(at time.Time) SessionStartFunc {
	return func(day, session int) time.Time { return at }
}
