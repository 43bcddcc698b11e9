package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onstage-hq/onstage-api/internal/models"
)

const codeColumns = "id, competition_id, studio_id, seq, code, assigned_at, reservation_approved_at"

// StudioCodeRepository persists blind-judging code assignments. The table is
// append-only; rows are never updated or deleted.
type StudioCodeRepository struct {
	db *sqlx.DB
}

// NewStudioCodeRepository creates a new studio code repository.
func NewStudioCodeRepository(db *sqlx.DB) *StudioCodeRepository {
	return &StudioCodeRepository{db: db}
}

// BeginTxx starts a transaction on the underlying database.
func (r *StudioCodeRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// ListByCompetition returns assignments in sequence order.
func (r *StudioCodeRepository) ListByCompetition(ctx context.Context, competitionID string) ([]models.StudioCodeAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM studio_code_assignments WHERE competition_id = $1 ORDER BY seq ASC", codeColumns)
	var assignments []models.StudioCodeAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, competitionID); err != nil {
		return nil, fmt.Errorf("list studio codes: %w", err)
	}
	return assignments, nil
}

// NextSeq claims the next free sequence index inside the transaction. The row
// lock on the current maximum plus the (competition_id, seq) unique constraint
// guarantee no duplicate or skipped index even under concurrent callers.
func (r *StudioCodeRepository) NextSeq(ctx context.Context, tx *sqlx.Tx, competitionID string) (int, error) {
	const query = `SELECT seq FROM studio_code_assignments WHERE competition_id = $1 ORDER BY seq DESC LIMIT 1 FOR UPDATE`
	var maxSeq int
	err := tx.GetContext(ctx, &maxSeq, query, competitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("claim next code seq: %w", err)
	}
	return maxSeq + 1, nil
}

// Insert appends one assignment.
func (r *StudioCodeRepository) Insert(ctx context.Context, exec sqlx.ExtContext, assignment *models.StudioCodeAssignment) error {
	if exec == nil {
		exec = r.db
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO studio_code_assignments (id, competition_id, studio_id, seq, code, assigned_at, reservation_approved_at) VALUES (:id, :competition_id, :studio_id, :seq, :code, :assigned_at, :reservation_approved_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, assignment); err != nil {
		return fmt.Errorf("insert studio code assignment: %w", err)
	}
	return nil
}

// ListApprovedPending returns approved reservations that have no code yet,
// oldest approval first with reservation id as the deterministic tie-break.
func (r *StudioCodeRepository) ListApprovedPending(ctx context.Context, competitionID string) ([]models.Reservation, error) {
	const query = `SELECT res.id, res.competition_id, res.studio_id, res.approved_at
FROM reservations res
LEFT JOIN studio_code_assignments sca ON sca.competition_id = res.competition_id AND sca.studio_id = res.studio_id
WHERE res.competition_id = $1 AND res.approved_at IS NOT NULL AND sca.id IS NULL
ORDER BY res.approved_at ASC, res.id ASC`
	var reservations []models.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, competitionID); err != nil {
		return nil, fmt.Errorf("list pending reservations: %w", err)
	}
	return reservations, nil
}
