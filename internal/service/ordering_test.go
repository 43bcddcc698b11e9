package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func item(id string, day, session, order int, duration int) models.ScheduleItem {
	return models.ScheduleItem{
		ID:              id,
		ItemType:        models.ItemTypeRoutine,
		DayNumber:       day,
		SessionNumber:   session,
		RunningOrder:    order,
		DurationMinutes: duration,
	}
}

func TestInsertItemAtShiftsSubsequent(t *testing.T) {
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
		item("c", 1, 1, 3, 3),
	}
	newItem := item("x", 1, 1, 0, 5)

	changed, err := insertItemAt(items, newItem, 2)
	require.NoError(t, err)

	byID := make(map[string]int)
	for _, it := range changed {
		byID[it.ID] = it.RunningOrder
	}
	require.Equal(t, 2, byID["x"])
	require.Equal(t, 3, byID["b"])
	require.Equal(t, 4, byID["c"])
	require.NotContains(t, byID, "a")
}

func TestInsertItemAtAppendPosition(t *testing.T) {
	items := []models.ScheduleItem{item("a", 1, 1, 1, 3)}
	changed, err := insertItemAt(items, item("x", 1, 1, 0, 5), 2)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	require.Equal(t, 2, changed[0].RunningOrder)
}

func TestInsertItemAtRejectsOutOfRange(t *testing.T) {
	items := []models.ScheduleItem{item("a", 1, 1, 1, 3)}
	_, err := insertItemAt(items, item("x", 1, 1, 0, 5), 4)
	require.Error(t, err)

	_, err = insertItemAt(items, item("x", 1, 1, 0, 5), 0)
	require.Error(t, err)
}

func TestRemoveItemAtClosesGap(t *testing.T) {
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
		item("c", 1, 1, 3, 3),
	}
	changed, err := removeItemAt(items, "b")
	require.NoError(t, err)
	require.Len(t, changed, 1)
	require.Equal(t, "c", changed[0].ID)
	require.Equal(t, 2, changed[0].RunningOrder)
}

func TestRemoveItemAtUnknownID(t *testing.T) {
	_, err := removeItemAt([]models.ScheduleItem{item("a", 1, 1, 1, 3)}, "nope")
	require.Error(t, err)
}

func TestApplyReorderBlockMovePreservesRelativeOrder(t *testing.T) {
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
		item("c", 1, 1, 3, 3),
		item("d", 1, 2, 1, 3),
		item("e", 1, 2, 2, 3),
	}

	next, err := applyReorder(items, []string{"c", "a"}, 1, 2, 2)
	require.NoError(t, err)
	require.NoError(t, verifyContiguity(next))

	placement := make(map[string]models.ScheduleItem)
	for _, it := range next {
		placement[it.ID] = it
	}
	// Source session renumbers densely.
	require.Equal(t, 1, placement["b"].RunningOrder)
	// Block lands at target in given order: c then a.
	require.Equal(t, models.SessionKey{Day: 1, Session: 2}, placement["c"].Session())
	require.Equal(t, 2, placement["c"].RunningOrder)
	require.Equal(t, 3, placement["a"].RunningOrder)
	// Target session items shift around the block.
	require.Equal(t, 1, placement["d"].RunningOrder)
	require.Equal(t, 4, placement["e"].RunningOrder)
}

func TestApplyReorderWithinSameSession(t *testing.T) {
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
		item("c", 1, 1, 3, 3),
	}
	next, err := applyReorder(items, []string{"c"}, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, verifyContiguity(next))

	placement := make(map[string]int)
	for _, it := range next {
		placement[it.ID] = it.RunningOrder
	}
	require.Equal(t, 1, placement["c"])
	require.Equal(t, 2, placement["a"])
	require.Equal(t, 3, placement["b"])
}

func TestApplyReorderRejectsForeignItem(t *testing.T) {
	items := []models.ScheduleItem{item("a", 1, 1, 1, 3)}
	_, err := applyReorder(items, []string{"ghost"}, 1, 1, 1)
	require.Error(t, err)
}

func TestApplyReorderRejectsDuplicateIDs(t *testing.T) {
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
	}
	_, err := applyReorder(items, []string{"a", "a"}, 1, 1, 1)
	require.Error(t, err)
}

func TestApplyReorderRejectsTargetOutOfRange(t *testing.T) {
	items := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
	}
	// After removing "a", session 1 holds one item, so position 3 is invalid.
	_, err := applyReorder(items, []string{"a"}, 1, 1, 3)
	require.Error(t, err)
}

func TestVerifyContiguityDetectsHole(t *testing.T) {
	require.NoError(t, verifyContiguity([]models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
	}))
	require.Error(t, verifyContiguity([]models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 3, 3),
	}))
	require.Error(t, verifyContiguity([]models.ScheduleItem{
		item("a", 1, 1, 2, 3),
	}))
}

func TestDiffPlacements(t *testing.T) {
	before := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 1, 2, 3),
	}
	after := []models.ScheduleItem{
		item("a", 1, 1, 1, 3),
		item("b", 1, 2, 1, 3),
	}
	changed := diffPlacements(before, after)
	require.Len(t, changed, 1)
	require.Equal(t, "b", changed[0].ID)
}
