package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func TestComputeStartTimesCumulative(t *testing.T) {
	start := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 4),
		item("c", 1, 1, 3, 3),
	}

	times := ComputeStartTimes(items, FixedSessionStart(start))
	require.Equal(t, start, times["a"])
	require.Equal(t, start.Add(3*time.Minute), times["b"])
	require.Equal(t, start.Add(7*time.Minute), times["c"])
}

func TestComputeStartTimesShiftAfterBreakInsert(t *testing.T) {
	start := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	breakItem := models.ScheduleItem{
		ID: "brk", ItemType: models.ItemTypeBreak,
		DayNumber: 1, SessionNumber: 1, RunningOrder: 2, DurationMinutes: 2,
	}
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		breakItem,
		item("b", 1, 1, 3, 4),
		item("c", 1, 1, 4, 3),
	}

	times := ComputeStartTimes(items, FixedSessionStart(start))
	require.Equal(t, start.Add(3*time.Minute), times["brk"])
	require.Equal(t, start.Add(5*time.Minute), times["b"])
	require.Equal(t, start.Add(9*time.Minute), times["c"])
}

func TestComputeStartTimesPerSessionReset(t *testing.T) {
	startDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	startFor := SessionStarts(startDate, []string{"08:00", "13:30"})
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 30),
		item("b", 1, 2, 1, 30),
		item("c", 2, 1, 1, 30),
	}

	times := ComputeStartTimes(items, startFor)
	require.Equal(t, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), times["a"])
	require.Equal(t, time.Date(2026, 3, 14, 13, 30, 0, 0, time.UTC), times["b"])
	require.Equal(t, time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC), times["c"])
}

func TestSessionStartsBeyondConfiguredListReusesLast(t *testing.T) {
	startDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	startFor := SessionStarts(startDate, []string{"09:00"})
	require.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), startFor(1, 3))
}

func TestSessionStartsMalformedClockFallsBack(t *testing.T) {
	startDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	startFor := SessionStarts(startDate, []string{"not-a-clock", "99:99"})
	require.Equal(t, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), startFor(1, 1))
}

func TestComputeStartTimesEmptyInput(t *testing.T) {
	times := ComputeStartTimes(nil, FixedSessionStart(time.Now()))
	require.Empty(t, times)
}
