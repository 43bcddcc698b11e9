package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onstage-hq/onstage-api/internal/models"
)

const entryColumns = "id, competition_id, studio_id, title, duration_minutes, participant_dancer_ids, size_category, age_group, classification, confirmed, created_at"

// EntryRepository reads the confirmed-entry catalog owned by the
// entry-management subsystem. Strictly read-only.
type EntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListConfirmedByCompetition returns confirmed entries in catalog order. The
// catalog order is established upstream (studio/category grouping) and is the
// placement tie-break for auto-generation.
func (r *EntryRepository) ListConfirmedByCompetition(ctx context.Context, competitionID string) ([]models.Entry, error) {
	query := fmt.Sprintf("SELECT %s FROM entries WHERE competition_id = $1 AND confirmed = TRUE ORDER BY created_at ASC, id ASC", entryColumns)
	var entries []models.Entry
	if err := r.db.SelectContext(ctx, &entries, query, competitionID); err != nil {
		return nil, fmt.Errorf("list confirmed entries: %w", err)
	}
	return entries, nil
}

// FindByID loads one entry.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	query := fmt.Sprintf("SELECT %s FROM entries WHERE id = $1", entryColumns)
	var entry models.Entry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}
