package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func TestCodeForIndexBijectiveBase26(t *testing.T) {
	cases := map[int]string{
		0:     "A",
		1:     "B",
		25:    "Z",
		26:    "AA",
		27:    "AB",
		51:    "AZ",
		52:    "BA",
		701:   "ZZ",
		702:   "AAA",
		18277: "ZZZ",
	}
	for index, want := range cases {
		require.Equal(t, want, CodeForIndex(index), "index %d", index)
	}
}

func TestCodeForIndexNegative(t *testing.T) {
	require.Equal(t, "", CodeForIndex(-1))
}

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type codeStoreStub struct {
	db       *sqlx.DB
	assigned []models.StudioCodeAssignment
	pending  []models.Reservation
}

func (s *codeStoreStub) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *codeStoreStub) ListByCompetition(ctx context.Context, competitionID string) ([]models.StudioCodeAssignment, error) {
	return append([]models.StudioCodeAssignment{}, s.assigned...), nil
}

func (s *codeStoreStub) ListApprovedPending(ctx context.Context, competitionID string) ([]models.Reservation, error) {
	return append([]models.Reservation{}, s.pending...), nil
}

func (s *codeStoreStub) NextSeq(ctx context.Context, tx *sqlx.Tx, competitionID string) (int, error) {
	if len(s.assigned) == 0 {
		return 0, nil
	}
	return s.assigned[len(s.assigned)-1].Seq + 1, nil
}

func (s *codeStoreStub) Insert(ctx context.Context, exec sqlx.ExtContext, assignment *models.StudioCodeAssignment) error {
	s.assigned = append(s.assigned, *assignment)
	remaining := s.pending[:0]
	for _, res := range s.pending {
		if res.StudioID != assignment.StudioID {
			remaining = append(remaining, res)
		}
	}
	s.pending = remaining
	return nil
}

func approvedReservation(id, studioID string, approvedAt time.Time) models.Reservation {
	at := approvedAt
	return models.Reservation{ID: id, CompetitionID: "comp-1", StudioID: studioID, ApprovedAt: &at}
}

func TestAssignCodesFollowsApprovalOrder(t *testing.T) {
	db, mock := newTxDB(t)
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &codeStoreStub{db: db, pending: []models.Reservation{
		approvedReservation("r1", "studio-b", base),
		approvedReservation("r2", "studio-a", base.Add(time.Hour)),
	}}
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewStudioCodeService(store, nil, nil, nil)
	result, err := svc.AssignCodes(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, result.Assigned, 2)
	require.Equal(t, 2, result.Total)

	// Approval order wins, not studio name order.
	require.Equal(t, "studio-b", result.Assigned[0].StudioID)
	require.Equal(t, "A", result.Assigned[0].Code)
	require.Equal(t, 0, result.Assigned[0].Seq)
	require.Equal(t, "studio-a", result.Assigned[1].StudioID)
	require.Equal(t, "B", result.Assigned[1].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignCodesAppendOnly(t *testing.T) {
	db, mock := newTxDB(t)
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &codeStoreStub{
		db: db,
		assigned: []models.StudioCodeAssignment{
			{CompetitionID: "comp-1", StudioID: "studio-z", Seq: 0, Code: "A"},
		},
		pending: []models.Reservation{
			// Approved before studio-z, but studio-z already holds A.
			approvedReservation("r1", "studio-early", base.Add(-time.Hour)),
		},
	}
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewStudioCodeService(store, nil, nil, nil)
	result, err := svc.AssignCodes(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, result.Assigned, 1)
	require.Equal(t, "studio-early", result.Assigned[0].StudioID)
	require.Equal(t, 1, result.Assigned[0].Seq)
	require.Equal(t, "B", result.Assigned[0].Code)

	// Existing assignment untouched.
	require.Equal(t, "A", store.assigned[0].Code)
	require.Equal(t, "studio-z", store.assigned[0].StudioID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignCodesIdempotentWithoutNewApprovals(t *testing.T) {
	db, _ := newTxDB(t)
	store := &codeStoreStub{
		db: db,
		assigned: []models.StudioCodeAssignment{
			{CompetitionID: "comp-1", StudioID: "studio-a", Seq: 0, Code: "A"},
		},
	}

	svc := NewStudioCodeService(store, nil, nil, nil)
	result, err := svc.AssignCodes(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Empty(t, result.Assigned)
	require.Equal(t, 1, result.Total)
	require.Len(t, store.assigned, 1)
}

func TestStudioCodeTable(t *testing.T) {
	db, _ := newTxDB(t)
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store := &codeStoreStub{
		db: db,
		assigned: []models.StudioCodeAssignment{
			{CompetitionID: "comp-1", StudioID: "studio-a", Seq: 0, Code: "A"},
		},
		pending: []models.Reservation{
			approvedReservation("r9", "studio-new", base),
		},
	}

	svc := NewStudioCodeService(store, nil, nil, nil)
	table, err := svc.Table(context.Background(), "comp-1")
	require.NoError(t, err)
	require.Len(t, table.Assigned, 1)
	require.Len(t, table.Pending, 1)
	require.Equal(t, "studio-new", table.Pending[0].StudioID)
}
