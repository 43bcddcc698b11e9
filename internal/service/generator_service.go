package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

// GeneratorService seeds a brand-new draft schedule from the confirmed entry
// list. Generation never touches an existing schedule: regeneration means
// delete and generate again.
type GeneratorService struct {
	repo      scheduleStore
	entries   entryCatalog
	refresher *DerivedRefresher
	metrics   *MetricsService
	locks     *keyedMutex
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGeneratorService constructs a GeneratorService.
func NewGeneratorService(repo scheduleStore, entries entryCatalog, refresher *DerivedRefresher, metrics *MetricsService, locks *keyedMutex, validate *validator.Validate, logger *zap.Logger) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if locks == nil {
		locks = newKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorService{
		repo:      repo,
		entries:   entries,
		refresher: refresher,
		metrics:   metrics,
		locks:     locks,
		validator: validate,
		logger:    logger,
	}
}

// AutoGenerate distributes every confirmed entry across day/session slots in
// catalog order. Slot sizes differ by at most one: with n entries over k slots
// the first n mod k slots hold one extra. The schedule and all items commit in
// one transaction.
func (s *GeneratorService) AutoGenerate(ctx context.Context, competitionID string, req dto.AutoGenerateRequest) (*models.Schedule, []models.ScheduleItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}

	unlock := s.locks.Lock("schedule:" + competitionID)
	defer unlock()

	if _, err := s.repo.FindByCompetition(ctx, competitionID); err == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrDuplicateSchedule, "delete the existing schedule before regenerating")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing schedule")
	}

	entries, err := s.entries.ListConfirmedByCompetition(ctx, competitionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry catalog")
	}

	schedule := &models.Schedule{
		CompetitionID: competitionID,
		Status:        models.ScheduleStatusDraft,
		StartDate:     startDate,
	}
	items := distributeEntries(entries, req.DayCount, req.SessionsPerDay)

	tx, err := s.repo.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin generation")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.Create(ctx, tx, schedule); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	for i := range items {
		items[i].ScheduleID = schedule.ID
	}
	if err = s.repo.InsertItems(ctx, tx, items); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert generated items")
	}
	if err = verifyContiguity(items); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generated order corrupt, aborting")
		return nil, nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation")
	}

	if s.metrics != nil {
		s.metrics.RecordGenerationRun()
	}
	s.refresher.AfterMutation(ctx, schedule, "auto_generate")
	s.logger.Info("schedule generated",
		zap.String("schedule_id", schedule.ID),
		zap.String("competition_id", competitionID),
		zap.Int("entries", len(entries)),
		zap.Int("days", req.DayCount),
		zap.Int("sessions_per_day", req.SessionsPerDay))
	return schedule, items, nil
}

// distributeEntries fills slots in (day, session) order, preserving entry
// order. Pure; running orders restart at 1 per session.
func distributeEntries(entries []models.Entry, dayCount, sessionsPerDay int) []models.ScheduleItem {
	slots := dayCount * sessionsPerDay
	if slots <= 0 {
		return nil
	}
	base := len(entries) / slots
	extra := len(entries) % slots

	items := make([]models.ScheduleItem, 0, len(entries))
	cursor := 0
	for slot := 0; slot < slots; slot++ {
		size := base
		if slot < extra {
			size++
		}
		day := slot/sessionsPerDay + 1
		session := slot%sessionsPerDay + 1
		for order := 1; order <= size; order++ {
			entry := entries[cursor]
			entryID := entry.ID
			items = append(items, models.ScheduleItem{
				ItemType:        models.ItemTypeRoutine,
				DayNumber:       day,
				SessionNumber:   session,
				RunningOrder:    order,
				DurationMinutes: entry.DurationMinutes,
				EntryID:         &entryID,
			})
			cursor++
		}
	}
	return items
}
