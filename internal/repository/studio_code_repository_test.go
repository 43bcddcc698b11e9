package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func TestStudioCodeRepositoryNextSeqEmptyTable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudioCodeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seq FROM studio_code_assignments WHERE competition_id = $1 ORDER BY seq DESC LIMIT 1 FOR UPDATE")).
		WithArgs("comp-1").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}))
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	seq, err := repo.NextSeq(context.Background(), tx, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, 0, seq)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudioCodeRepositoryNextSeqAfterExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudioCodeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC LIMIT 1 FOR UPDATE")).
		WithArgs("comp-1").
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(4))
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	seq, err := repo.NextSeq(context.Background(), tx, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, 5, seq)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudioCodeRepositoryListApprovedPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudioCodeRepository(db)

	approvedAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "competition_id", "studio_id", "approved_at"}).
		AddRow("r1", "comp-1", "studio-a", approvedAt)
	mock.ExpectQuery("LEFT JOIN studio_code_assignments").
		WithArgs("comp-1").
		WillReturnRows(rows)

	pending, err := repo.ListApprovedPending(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "studio-a", pending[0].StudioID)
	require.NotNil(t, pending[0].ApprovedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudioCodeRepositoryInsertAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudioCodeRepository(db)

	mock.ExpectExec("INSERT INTO studio_code_assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.StudioCodeAssignment{
		CompetitionID: "comp-1", StudioID: "studio-a", Seq: 0, Code: "A",
		ReservationApprovedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), nil, assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.AssignedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
