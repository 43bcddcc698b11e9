package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

func confirmedEntries(n int) []models.Entry {
	entries := make([]models.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, models.Entry{
			ID:              fmt.Sprintf("e%d", i+1),
			CompetitionID:   "comp-1",
			DurationMinutes: 3,
			Confirmed:       true,
		})
	}
	return entries
}

func TestDistributeEntriesBalancedSlots(t *testing.T) {
	items := distributeEntries(confirmedEntries(7), 2, 2)
	require.Len(t, items, 7)
	require.NoError(t, verifyContiguity(items))

	counts := make(map[models.SessionKey]int)
	for _, it := range items {
		counts[it.Session()]++
	}
	// 7 entries over 4 slots: first three slots take two, the last takes one.
	require.Equal(t, 2, counts[models.SessionKey{Day: 1, Session: 1}])
	require.Equal(t, 2, counts[models.SessionKey{Day: 1, Session: 2}])
	require.Equal(t, 2, counts[models.SessionKey{Day: 2, Session: 1}])
	require.Equal(t, 1, counts[models.SessionKey{Day: 2, Session: 2}])
}

func TestDistributeEntriesPreservesCatalogOrder(t *testing.T) {
	items := distributeEntries(confirmedEntries(5), 1, 2)
	require.Len(t, items, 5)

	var got []string
	for _, it := range items {
		got = append(got, *it.EntryID)
	}
	require.Equal(t, []string{"e1", "e2", "e3", "e4", "e5"}, got)
	// Session 1 takes the extra entry.
	require.Equal(t, models.SessionKey{Day: 1, Session: 1}, items[2].Session())
	require.Equal(t, models.SessionKey{Day: 1, Session: 2}, items[3].Session())
}

func TestDistributeEntriesFewerEntriesThanSlots(t *testing.T) {
	items := distributeEntries(confirmedEntries(2), 2, 2)
	require.Len(t, items, 2)
	require.NoError(t, verifyContiguity(items))
	require.Equal(t, models.SessionKey{Day: 1, Session: 1}, items[0].Session())
	require.Equal(t, models.SessionKey{Day: 1, Session: 2}, items[1].Session())
}

func TestAutoGenerateCreatesDraftInOneTransaction(t *testing.T) {
	db, mock := newTxDB(t)
	store := &scheduleStoreStub{db: db}
	catalog := &entryCatalogStub{entries: confirmedEntries(6)}
	svc := NewGeneratorService(store, catalog, nil, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	schedule, items, err := svc.AutoGenerate(context.Background(), "comp-1", dto.AutoGenerateRequest{
		StartDate: "2026-03-14", DayCount: 2, SessionsPerDay: 1,
	})
	require.NoError(t, err)
	require.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	require.Len(t, items, 6)
	for _, it := range items {
		require.Equal(t, schedule.ID, it.ScheduleID)
		require.Equal(t, models.ItemTypeRoutine, it.ItemType)
		require.Equal(t, 3, it.DurationMinutes)
	}
	require.NoError(t, verifyContiguity(items))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoGenerateRejectsExistingSchedule(t *testing.T) {
	db, _ := newTxDB(t)
	store := &scheduleStoreStub{db: db, schedule: &models.Schedule{
		ID: "sch-1", CompetitionID: "comp-1", Status: models.ScheduleStatusDraft,
	}}
	svc := NewGeneratorService(store, &entryCatalogStub{}, nil, nil, nil, nil, nil)

	_, _, err := svc.AutoGenerate(context.Background(), "comp-1", dto.AutoGenerateRequest{
		StartDate: "2026-03-14", DayCount: 1, SessionsPerDay: 1,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrDuplicateSchedule.Code, appErrors.FromError(err).Code)
}

func TestAutoGenerateValidatesPayload(t *testing.T) {
	db, _ := newTxDB(t)
	svc := NewGeneratorService(&scheduleStoreStub{db: db}, &entryCatalogStub{}, nil, nil, nil, nil, nil)

	_, _, err := svc.AutoGenerate(context.Background(), "comp-1", dto.AutoGenerateRequest{
		StartDate: "2026-03-14", DayCount: 0, SessionsPerDay: 1,
	})
	require.Error(t, err)

	_, _, err = svc.AutoGenerate(context.Background(), "comp-1", dto.AutoGenerateRequest{
		StartDate: "not-a-date", DayCount: 1, SessionsPerDay: 1,
	})
	require.Error(t, err)
}
