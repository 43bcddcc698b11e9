package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

// AwardService derives the trophy/overall placement point of each
// (size, age, classification) group: the last-performed routine of the group
// on its chronologically last day.
type AwardService struct {
	repo    scheduleItemLister
	entries entryCatalog
	logger  *zap.Logger
}

// NewAwardService constructs an AwardService.
func NewAwardService(repo scheduleItemLister, entries entryCatalog, logger *zap.Logger) *AwardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AwardService{repo: repo, entries: entries, logger: logger}
}

// Place loads the snapshot and computes the markers.
func (s *AwardService) Place(ctx context.Context, schedule *models.Schedule) ([]models.AwardMarker, error) {
	items, err := s.repo.ListItems(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule items")
	}
	entries, err := s.entries.ListConfirmedByCompetition(ctx, schedule.CompetitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry catalog")
	}
	return PlaceAwards(items, entriesByID(entries)), nil
}

// PlaceAwards is the pure placement pass. Deterministic: identical input
// always yields identical markers in group-key order. Never incrementally
// patched; callers recompute after every structural change.
func PlaceAwards(items []models.ScheduleItem, entries map[string]models.Entry) []models.AwardMarker {
	type groupState struct {
		marker models.AwardMarker
		count  int
	}
	groups := make(map[string]*groupState)

	for _, item := range items {
		if item.ItemType != models.ItemTypeRoutine || item.EntryID == nil {
			continue
		}
		entry, ok := entries[*item.EntryID]
		if !ok {
			continue
		}
		key := entry.AwardGroupKey()
		state, exists := groups[key]
		if !exists {
			state = &groupState{marker: models.AwardMarker{
				GroupKey:       key,
				SizeCategory:   entry.SizeCategory,
				AgeGroup:       entry.AgeGroup,
				Classification: entry.Classification,
			}}
			groups[key] = state
		}
		state.count++

		m := &state.marker
		later := m.LastItemID == "" ||
			item.DayNumber > m.DayNumber ||
			(item.DayNumber == m.DayNumber && item.SessionNumber > m.SessionNumber) ||
			(item.DayNumber == m.DayNumber && item.SessionNumber == m.SessionNumber && item.RunningOrder > m.RunningOrder)
		if later {
			m.LastItemID = item.ID
			m.DayNumber = item.DayNumber
			m.SessionNumber = item.SessionNumber
			m.RunningOrder = item.RunningOrder
		}
	}

	markers := make([]models.AwardMarker, 0, len(groups))
	for _, state := range groups {
		state.marker.RoutineCount = state.count
		markers = append(markers, state.marker)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].GroupKey < markers[j].GroupKey })
	return markers
}
