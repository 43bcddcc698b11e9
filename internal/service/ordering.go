package service

import (
	"fmt"
	"sort"

	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

// The functions in this file are the pure running-order transforms backing the
// schedule item store and the reorder engine. They never touch storage: each
// takes the current item snapshot and returns the full set of items whose
// placement changed, leaving persistence and transactions to the caller.

// sessionItems returns the items of one (day, session) sorted by running order.
func sessionItems(items []models.ScheduleItem, key models.SessionKey) []models.ScheduleItem {
	var bucket []models.ScheduleItem
	for _, item := range items {
		if item.Session() == key {
			bucket = append(bucket, item)
		}
	}
	sort.Slice(bucket, func(i, j int) bool { return bucket[i].RunningOrder < bucket[j].RunningOrder })
	return bucket
}

// sessionKeys returns every populated (day, session) bucket in day/session order.
func sessionKeys(items []models.ScheduleItem) []models.SessionKey {
	seen := make(map[models.SessionKey]struct{})
	var keys []models.SessionKey
	for _, item := range items {
		key := item.Session()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Day != keys[j].Day {
			return keys[i].Day < keys[j].Day
		}
		return keys[i].Session < keys[j].Session
	})
	return keys
}

// insertItemAt places newItem at position within its (day, session), shifting
// subsequent items up by one. Position must be in [1, n+1]. Returns the items
// whose running order changed, newItem included.
func insertItemAt(items []models.ScheduleItem, newItem models.ScheduleItem, position int) ([]models.ScheduleItem, error) {
	bucket := sessionItems(items, newItem.Session())
	if position < 1 || position > len(bucket)+1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidOrdering, fmt.Sprintf("position %d out of range 1..%d", position, len(bucket)+1))
	}

	changed := []models.ScheduleItem{}
	for _, item := range bucket {
		if item.RunningOrder >= position {
			item.RunningOrder++
			changed = append(changed, item)
		}
	}
	newItem.RunningOrder = position
	changed = append(changed, newItem)
	return changed, nil
}

// removeItemAt closes the gap left by removing the item with the given id.
// Returns the items whose running order changed.
func removeItemAt(items []models.ScheduleItem, itemID string) ([]models.ScheduleItem, error) {
	var target *models.ScheduleItem
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule item not found")
	}

	bucket := sessionItems(items, target.Session())
	changed := []models.ScheduleItem{}
	for _, item := range bucket {
		if item.RunningOrder > target.RunningOrder {
			item.RunningOrder--
			changed = append(changed, item)
		}
	}
	return changed, nil
}

// applyReorder removes movedIDs from their current positions (closing gaps)
// and reinserts them as a contiguous block at targetPosition of the target
// (day, session), preserving their relative order as given in movedIDs.
// It returns the complete new item set, placements updated.
func applyReorder(items []models.ScheduleItem, movedIDs []string, targetDay, targetSession, targetPosition int) ([]models.ScheduleItem, error) {
	if len(movedIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidOrdering, "no items to move")
	}

	byID := make(map[string]models.ScheduleItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	movedSet := make(map[string]struct{}, len(movedIDs))
	moved := make([]models.ScheduleItem, 0, len(movedIDs))
	for _, id := range movedIDs {
		item, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidOrdering, fmt.Sprintf("item %s does not belong to this schedule", id))
		}
		if _, dup := movedSet[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrInvalidOrdering, fmt.Sprintf("item %s listed twice", id))
		}
		movedSet[id] = struct{}{}
		moved = append(moved, item)
	}

	// Rebuild every session without the moved items, renumbering densely.
	remaining := make([]models.ScheduleItem, 0, len(items)-len(moved))
	for _, key := range sessionKeys(items) {
		order := 0
		for _, item := range sessionItems(items, key) {
			if _, isMoved := movedSet[item.ID]; isMoved {
				continue
			}
			order++
			item.RunningOrder = order
			remaining = append(remaining, item)
		}
	}

	targetKey := models.SessionKey{Day: targetDay, Session: targetSession}
	targetBucket := sessionItems(remaining, targetKey)
	if targetPosition < 1 || targetPosition > len(targetBucket)+1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidOrdering, fmt.Sprintf("target position %d out of range 1..%d", targetPosition, len(targetBucket)+1))
	}

	result := make([]models.ScheduleItem, 0, len(items))
	for _, item := range remaining {
		if item.Session() == targetKey && item.RunningOrder >= targetPosition {
			item.RunningOrder += len(moved)
		}
		result = append(result, item)
	}
	for i, item := range moved {
		item.DayNumber = targetDay
		item.SessionNumber = targetSession
		item.RunningOrder = targetPosition + i
		result = append(result, item)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.DayNumber != b.DayNumber {
			return a.DayNumber < b.DayNumber
		}
		if a.SessionNumber != b.SessionNumber {
			return a.SessionNumber < b.SessionNumber
		}
		return a.RunningOrder < b.RunningOrder
	})
	return result, nil
}

// verifyContiguity checks that every (day, session) holds running orders
// exactly {1..n}. A violation is an internal bug: the caller must abort the
// surrounding transaction, never self-repair.
func verifyContiguity(items []models.ScheduleItem) error {
	for _, key := range sessionKeys(items) {
		bucket := sessionItems(items, key)
		for i, item := range bucket {
			if item.RunningOrder != i+1 {
				return fmt.Errorf("running order corrupt in day %d session %d: position %d holds order %d", key.Day, key.Session, i+1, item.RunningOrder)
			}
		}
	}
	return nil
}

// diffPlacements returns the items of after whose placement differs from before.
func diffPlacements(before, after []models.ScheduleItem) []models.ScheduleItem {
	prev := make(map[string]models.ScheduleItem, len(before))
	for _, item := range before {
		prev[item.ID] = item
	}
	var changed []models.ScheduleItem
	for _, item := range after {
		old, ok := prev[item.ID]
		if !ok || old.DayNumber != item.DayNumber || old.SessionNumber != item.SessionNumber || old.RunningOrder != item.RunningOrder {
			changed = append(changed, item)
		}
	}
	return changed
}
