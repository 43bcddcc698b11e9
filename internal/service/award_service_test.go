package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func groupedEntry(id, size, age, class string) models.Entry {
	return models.Entry{
		ID:             id,
		SizeCategory:   size,
		AgeGroup:       age,
		Classification: class,
		Confirmed:      true,
	}
}

func TestPlaceAwardsMarksLastRoutineOfGroup(t *testing.T) {
	entries := map[string]models.Entry{
		"e1": groupedEntry("e1", "SOLO", "JUNIOR", "COMPETITIVE"),
		"e2": groupedEntry("e2", "SOLO", "JUNIOR", "COMPETITIVE"),
		"e3": groupedEntry("e3", "DUO", "SENIOR", "ELITE"),
	}
	items := []models.ScheduleItem{
		routine("i1", 1, 1, 1, 3, "e1"),
		routine("i2", 1, 2, 1, 3, "e3"),
		routine("i3", 2, 1, 1, 3, "e2"),
	}

	markers := PlaceAwards(items, entries)
	require.Len(t, markers, 2)

	byKey := make(map[string]models.AwardMarker)
	for _, m := range markers {
		byKey[m.GroupKey] = m
	}

	solo := byKey["SOLO|JUNIOR|COMPETITIVE"]
	require.Equal(t, "i3", solo.LastItemID)
	require.Equal(t, 2, solo.DayNumber)
	require.Equal(t, 2, solo.RoutineCount)

	duo := byKey["DUO|SENIOR|ELITE"]
	require.Equal(t, "i2", duo.LastItemID)
	require.Equal(t, 1, duo.RoutineCount)
}

func TestPlaceAwardsOrdersWithinDayBySessionThenRunningOrder(t *testing.T) {
	entries := map[string]models.Entry{
		"e1": groupedEntry("e1", "SOLO", "JUNIOR", "COMPETITIVE"),
		"e2": groupedEntry("e2", "SOLO", "JUNIOR", "COMPETITIVE"),
		"e3": groupedEntry("e3", "SOLO", "JUNIOR", "COMPETITIVE"),
	}
	items := []models.ScheduleItem{
		routine("i1", 1, 2, 1, 3, "e1"),
		routine("i2", 1, 1, 5, 3, "e2"),
		routine("i3", 1, 2, 2, 3, "e3"),
	}

	markers := PlaceAwards(items, entries)
	require.Len(t, markers, 1)
	require.Equal(t, "i3", markers[0].LastItemID)
	require.Equal(t, 3, markers[0].RoutineCount)
}

func TestPlaceAwardsDeterministicOutput(t *testing.T) {
	entries := map[string]models.Entry{
		"e1": groupedEntry("e1", "SOLO", "JUNIOR", "COMPETITIVE"),
		"e2": groupedEntry("e2", "DUO", "SENIOR", "ELITE"),
		"e3": groupedEntry("e3", "TRIO", "MINI", "NOVICE"),
	}
	items := []models.ScheduleItem{
		routine("i1", 1, 1, 1, 3, "e3"),
		routine("i2", 1, 1, 2, 3, "e1"),
		routine("i3", 1, 1, 3, 3, "e2"),
	}

	first := PlaceAwards(items, entries)
	second := PlaceAwards(items, entries)
	require.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		require.Less(t, first[i-1].GroupKey, first[i].GroupKey)
	}
}

func TestPlaceAwardsIgnoresBreaksAndUnknownEntries(t *testing.T) {
	entries := map[string]models.Entry{
		"e1": groupedEntry("e1", "SOLO", "JUNIOR", "COMPETITIVE"),
	}
	breakItem := models.ScheduleItem{
		ID: "brk", ItemType: models.ItemTypeBreak,
		DayNumber: 1, SessionNumber: 1, RunningOrder: 2, DurationMinutes: 10,
	}
	items := []models.ScheduleItem{
		routine("i1", 1, 1, 1, 3, "e1"),
		breakItem,
		routine("i2", 1, 1, 3, 3, "missing"),
	}

	markers := PlaceAwards(items, entries)
	require.Len(t, markers, 1)
	require.Equal(t, "i1", markers[0].LastItemID)
}

func TestAwardServicePlaceLoadsSnapshot(t *testing.T) {
	items := &itemListerStub{items: []models.ScheduleItem{
		routine("i1", 1, 1, 1, 3, "e1"),
	}}
	catalog := &entryCatalogStub{entries: []models.Entry{
		groupedEntry("e1", "SOLO", "JUNIOR", "COMPETITIVE"),
	}}
	svc := NewAwardService(items, catalog, nil)

	markers, err := svc.Place(context.Background(), &models.Schedule{ID: "sch-1", CompetitionID: "comp-1"})
	require.NoError(t, err)
	require.Len(t, markers, 1)
	require.Equal(t, "i1", markers[0].LastItemID)
}
