package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

// ReorderService moves one or many items as a contiguous block in a single
// transaction. The move either commits with every affected session dense and
// 1-based, or rolls back leaving the order untouched.
type ReorderService struct {
	repo      scheduleStore
	refresher *DerivedRefresher
	locks     *keyedMutex
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReorderService constructs a ReorderService.
func NewReorderService(repo scheduleStore, refresher *DerivedRefresher, locks *keyedMutex, validate *validator.Validate, logger *zap.Logger) *ReorderService {
	if validate == nil {
		validate = validator.New()
	}
	if locks == nil {
		locks = newKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReorderService{repo: repo, refresher: refresher, locks: locks, validator: validate, logger: logger}
}

// Reorder applies the block move. The moved items keep the relative order
// given in the request, vacated sessions renumber densely, and the target
// session opens a gap exactly as wide as the block. Rejected while locked.
func (s *ReorderService) Reorder(ctx context.Context, competitionID string, req dto.ReorderRequest) ([]models.ScheduleItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}

	unlock := s.locks.Lock("schedule:" + competitionID)
	defer unlock()

	// Status is read under the mutex so a concurrent lock cannot slip in
	// between the check and the write.
	schedule, err := s.repo.FindByCompetition(ctx, competitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "competition has no schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.Locked() {
		return nil, appErrors.Clone(appErrors.ErrScheduleLocked, "")
	}

	tx, err := s.repo.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin reorder")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current []models.ScheduleItem
	current, err = s.repo.ListItemsForUpdate(ctx, tx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule items")
	}

	var next []models.ScheduleItem
	next, err = applyReorder(current, req.ItemIDs, req.TargetDay, req.TargetSession, req.TargetPosition)
	if err != nil {
		return nil, err
	}

	if err = verifyContiguity(next); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "running order corrupted, aborting")
		return nil, err
	}

	if err = s.repo.UpdatePlacements(ctx, tx, diffPlacements(current, next)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write placements")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reorder")
	}

	s.refresher.AfterMutation(ctx, schedule, "reorder")
	s.logger.Info("schedule reordered",
		zap.String("schedule_id", schedule.ID),
		zap.Int("moved", len(req.ItemIDs)),
		zap.Int("target_day", req.TargetDay),
		zap.Int("target_session", req.TargetSession),
		zap.Int("target_position", req.TargetPosition))
	return next, nil
}
