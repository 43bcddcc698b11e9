package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "competition_id", "status", "start_date", "locked_at", "created_at", "updated_at"})
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "schedule_id", "item_type", "day_number", "session_number", "running_order", "duration_minutes", "entry_id", "label", "created_at", "updated_at"})
}

func TestScheduleRepositoryFindByCompetition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, competition_id, status, start_date, locked_at, created_at, updated_at FROM schedules WHERE competition_id = $1")).
		WithArgs("comp-1").
		WillReturnRows(scheduleRows().AddRow("sch-1", "comp-1", "DRAFT", now, nil, now, now))

	schedule, err := repo.FindByCompetition(context.Background(), "comp-1")
	require.NoError(t, err)
	assert.Equal(t, "sch-1", schedule.ID)
	assert.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	assert.Nil(t, schedule.LockedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{CompetitionID: "comp-1", Status: models.ScheduleStatusDraft, StartDate: time.Now()}
	require.NoError(t, repo.Create(context.Background(), nil, schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.False(t, schedule.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListItemsOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := itemRows().
		AddRow("i1", "sch-1", "ROUTINE", 1, 1, 1, 3, "e1", nil, now, now).
		AddRow("i2", "sch-1", "BREAK", 1, 1, 2, 15, nil, "Lunch", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, item_type, day_number, session_number, running_order, duration_minutes, entry_id, label, created_at, updated_at FROM schedule_items WHERE schedule_id = $1 ORDER BY day_number ASC, session_number ASC, running_order ASC")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	items, err := repo.ListItems(context.Background(), "sch-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.ItemTypeRoutine, items[0].ItemType)
	assert.Equal(t, "e1", *items[0].EntryID)
	assert.Equal(t, "Lunch", *items[1].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListItemsForUpdateHoldsRowLocks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("sch-1").
		WillReturnRows(itemRows())
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	items, err := repo.ListItemsForUpdate(context.Background(), tx, "sch-1")
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdatePlacements(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_items SET day_number = $1, session_number = $2, running_order = $3, updated_at = $4 WHERE id = $5")).
		WithArgs(1, 2, 4, sqlmock.AnyArg(), "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePlacements(context.Background(), nil, []models.ScheduleItem{
		{ID: "i1", DayNumber: 1, SessionNumber: 2, RunningOrder: 4},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	lockedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, locked_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs("LOCKED", lockedAt, sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), nil, "sch-1", models.ScheduleStatusLocked, &lockedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDaySummaries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"day_number", "sessions", "items"}).
		AddRow(1, 2, 14).
		AddRow(2, 1, 6)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT day_number, COUNT(DISTINCT session_number) AS sessions, COUNT(*) AS items FROM schedule_items WHERE schedule_id = $1 GROUP BY day_number ORDER BY day_number ASC")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	digests, err := repo.DaySummaries(context.Background(), "sch-1")
	require.NoError(t, err)
	require.Len(t, digests, 2)
	assert.Equal(t, 14, digests[0].Items)
	assert.Equal(t, 1, digests[1].Sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
