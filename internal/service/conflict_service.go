package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

// ConflictService recomputes dancer double-booking conflicts over the current
// ordering. Results are derived fresh on every pass; nothing is persisted.
type ConflictService struct {
	repo    scheduleItemLister
	entries entryCatalog
	logger  *zap.Logger

	defaultGapEntries int
	defaultGapMinutes int
}

type scheduleItemLister interface {
	ListItems(ctx context.Context, scheduleID string) ([]models.ScheduleItem, error)
}

type entryCatalog interface {
	ListConfirmedByCompetition(ctx context.Context, competitionID string) ([]models.Entry, error)
}

// NewConflictService constructs a ConflictService.
func NewConflictService(repo scheduleItemLister, entries entryCatalog, defaultGapEntries, defaultGapMinutes int, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		repo:              repo,
		entries:           entries,
		logger:            logger,
		defaultGapEntries: defaultGapEntries,
		defaultGapMinutes: defaultGapMinutes,
	}
}

// Detect loads the schedule snapshot and runs the detection pass. Zero gap
// parameters fall back to the configured defaults.
func (s *ConflictService) Detect(ctx context.Context, schedule *models.Schedule, gapEntries, gapMinutes int) ([]models.Conflict, error) {
	if gapEntries <= 0 {
		gapEntries = s.defaultGapEntries
	}
	if gapMinutes <= 0 {
		gapMinutes = s.defaultGapMinutes
	}

	items, err := s.repo.ListItems(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule items")
	}
	entries, err := s.entries.ListConfirmedByCompetition(ctx, schedule.CompetitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry catalog")
	}

	conflicts := DetectConflicts(items, entriesByID(entries), gapEntries, gapMinutes)
	s.logger.Debug("conflict pass complete",
		zap.String("schedule_id", schedule.ID),
		zap.Int("items", len(items)),
		zap.Int("conflicts", len(conflicts)))
	return conflicts, nil
}

func entriesByID(entries []models.Entry) map[string]models.Entry {
	byID := make(map[string]models.Entry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}
	return byID
}

// DetectConflicts is the pure detection pass. For every dancer it walks that
// dancer's routines per (day, session) in running order and grades each
// consecutive pair. The gap is judged by elapsed minutes between the two
// routines (summing intervening durations, so a long break satisfies the gap
// with zero intervening routines); the entry-count minimum only downgrades an
// otherwise-satisfied gap to a warning. Cross-session and cross-day adjacency
// never conflicts. One scan builds the per-dancer index, so the pass is
// O(total items + total participants).
func DetectConflicts(items []models.ScheduleItem, entries map[string]models.Entry, minGapEntries, minGapMinutes int) []models.Conflict {
	var conflicts []models.Conflict

	for _, key := range sessionKeys(items) {
		bucket := sessionItems(items, key)

		// prefix[i] = summed duration of bucket[0..i-1].
		prefix := make([]int, len(bucket)+1)
		for i, item := range bucket {
			prefix[i+1] = prefix[i] + item.DurationMinutes
		}

		perDancer := make(map[string][]int)
		var dancerOrder []string
		for idx, item := range bucket {
			if item.ItemType != models.ItemTypeRoutine || item.EntryID == nil {
				continue
			}
			entry, ok := entries[*item.EntryID]
			if !ok {
				continue
			}
			for _, dancerID := range entry.ParticipantIDs {
				if _, seen := perDancer[dancerID]; !seen {
					dancerOrder = append(dancerOrder, dancerID)
				}
				perDancer[dancerID] = append(perDancer[dancerID], idx)
			}
		}
		sort.Strings(dancerOrder)

		for _, dancerID := range dancerOrder {
			positions := perDancer[dancerID]
			for i := 0; i+1 < len(positions); i++ {
				first, second := bucket[positions[i]], bucket[positions[i+1]]
				between := second.RunningOrder - first.RunningOrder - 1
				elapsed := prefix[positions[i+1]] - prefix[positions[i]+1]

				var severity models.ConflictSeverity
				var message string
				switch {
				case between == 0 || elapsed < 0:
					severity = models.ConflictSeverityCritical
					message = fmt.Sprintf("dancer %s performs back-to-back at #%d and #%d", dancerID, first.RunningOrder, second.RunningOrder)
				case elapsed < minGapMinutes:
					severity = models.ConflictSeverityError
					message = fmt.Sprintf("dancer %s has only %d minutes between #%d and #%d (minimum %d)", dancerID, elapsed, first.RunningOrder, second.RunningOrder, minGapMinutes)
				case between < minGapEntries:
					severity = models.ConflictSeverityWarning
					message = fmt.Sprintf("dancer %s has only %d routines between #%d and #%d (recommended %d)", dancerID, between, first.RunningOrder, second.RunningOrder, minGapEntries)
				default:
					continue
				}

				conflicts = append(conflicts, models.Conflict{
					ID:              uuid.NewString(),
					DancerID:        dancerID,
					Routine1ItemID:  first.ID,
					Routine2ItemID:  second.ID,
					DayNumber:       key.Day,
					SessionNumber:   key.Session,
					RoutinesBetween: between,
					GapMinutes:      elapsed,
					Severity:        severity,
					Message:         message,
				})
			}
		}
	}

	return conflicts
}
