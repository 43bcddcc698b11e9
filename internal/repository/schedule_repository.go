package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/onstage-hq/onstage-api/internal/models"
)

const scheduleColumns = "id, competition_id, status, start_date, locked_at, created_at, updated_at"
const itemColumns = "id, schedule_id, item_type, day_number, session_number, running_order, duration_minutes, entry_id, label, created_at, updated_at"

// ScheduleRepository provides persistence for schedules and their items.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// BeginTxx starts a transaction on the underlying database.
func (r *ScheduleRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// FindByCompetition loads the schedule owned by a competition, if any.
func (r *ScheduleRepository) FindByCompetition(ctx context.Context, competitionID string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE competition_id = $1", scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, competitionID); err != nil {
		return nil, err
	}
	return &sched, nil
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if exec == nil {
		exec = r.db
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, competition_id, status, start_date, locked_at, created_at, updated_at) VALUES (:id, :competition_id, :status, :start_date, :locked_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// UpdateStatus transitions the schedule lock state.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus, lockedAt *time.Time) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE schedules SET status = $1, locked_at = $2, updated_at = $3 WHERE id = $4`
	if _, err := exec.ExecContext(ctx, query, status, lockedAt, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// ListItems returns every item of a schedule in running order.
func (r *ScheduleRepository) ListItems(ctx context.Context, scheduleID string) ([]models.ScheduleItem, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_items WHERE schedule_id = $1 ORDER BY day_number ASC, session_number ASC, running_order ASC", itemColumns)
	var items []models.ScheduleItem
	if err := r.db.SelectContext(ctx, &items, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule items: %w", err)
	}
	return items, nil
}

// ListItemsForUpdate loads items inside a transaction with row locks held, so a
// concurrent mutation on the same schedule blocks until commit.
func (r *ScheduleRepository) ListItemsForUpdate(ctx context.Context, tx *sqlx.Tx, scheduleID string) ([]models.ScheduleItem, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_items WHERE schedule_id = $1 ORDER BY day_number ASC, session_number ASC, running_order ASC FOR UPDATE", itemColumns)
	var items []models.ScheduleItem
	if err := tx.SelectContext(ctx, &items, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule items for update: %w", err)
	}
	return items, nil
}

// FindItem loads a single item scoped to its schedule.
func (r *ScheduleRepository) FindItem(ctx context.Context, scheduleID, itemID string) (*models.ScheduleItem, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_items WHERE schedule_id = $1 AND id = $2", itemColumns)
	var item models.ScheduleItem
	if err := r.db.GetContext(ctx, &item, query, scheduleID, itemID); err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItems stores schedule items, assigning ids as needed.
func (r *ScheduleRepository) InsertItems(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	if exec == nil {
		exec = r.db
	}
	now := time.Now().UTC()
	for i := range items {
		payload := items[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO schedule_items (id, schedule_id, item_type, day_number, session_number, running_order, duration_minutes, entry_id, label, created_at, updated_at) VALUES (:id, :schedule_id, :item_type, :day_number, :session_number, :running_order, :duration_minutes, :entry_id, :label, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert schedule item: %w", err)
		}
		items[i] = payload
	}
	return nil
}

// DeleteItem removes an item by id.
func (r *ScheduleRepository) DeleteItem(ctx context.Context, exec sqlx.ExtContext, itemID string) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM schedule_items WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("delete schedule item: %w", err)
	}
	return nil
}

// UpdatePlacements writes new (day, session, running_order) positions for the
// provided items. Callers are expected to run this inside a transaction so a
// failure leaves no partially-renumbered state behind.
func (r *ScheduleRepository) UpdatePlacements(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	if exec == nil {
		exec = r.db
	}
	now := time.Now().UTC()
	const query = `UPDATE schedule_items SET day_number = $1, session_number = $2, running_order = $3, updated_at = $4 WHERE id = $5`
	for _, item := range items {
		if _, err := exec.ExecContext(ctx, query, item.DayNumber, item.SessionNumber, item.RunningOrder, now, item.ID); err != nil {
			return fmt.Errorf("update item placement %s: %w", item.ID, err)
		}
	}
	return nil
}

// DaySummaries aggregates per-day item counts for the schedule overview.
func (r *ScheduleRepository) DaySummaries(ctx context.Context, scheduleID string) ([]models.DayDigest, error) {
	const query = `SELECT day_number, COUNT(DISTINCT session_number) AS sessions, COUNT(*) AS items FROM schedule_items WHERE schedule_id = $1 GROUP BY day_number ORDER BY day_number ASC`
	var digests []models.DayDigest
	if err := r.db.SelectContext(ctx, &digests, query, scheduleID); err != nil {
		return nil, fmt.Errorf("schedule day summaries: %w", err)
	}
	return digests, nil
}
