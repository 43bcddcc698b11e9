package dto

import (
	"time"

	"github.com/onstage-hq/onstage-api/internal/models"
)

// CreateScheduleRequest creates an empty draft schedule for a competition.
type CreateScheduleRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// AutoGenerateRequest seeds a brand-new schedule from the confirmed entry list.
type AutoGenerateRequest struct {
	StartDate      string `json:"startDate" validate:"required,datetime=2006-01-02"`
	DayCount       int    `json:"dayCount" validate:"required,min=1,max=14"`
	SessionsPerDay int    `json:"sessionsPerDay" validate:"required,min=1,max=12"`
}

// InsertItemRequest places a routine, break or award marker at a position.
type InsertItemRequest struct {
	ItemType        string  `json:"itemType" validate:"required,oneof=ROUTINE BREAK AWARD"`
	DayNumber       int     `json:"dayNumber" validate:"required,min=1"`
	SessionNumber   int     `json:"sessionNumber" validate:"required,min=1"`
	Position        int     `json:"position" validate:"required,min=1"`
	DurationMinutes int     `json:"durationMinutes" validate:"min=0"`
	EntryID         *string `json:"entryId,omitempty"`
	Label           *string `json:"label,omitempty"`
}

// ReorderRequest moves one or many items as a contiguous block.
type ReorderRequest struct {
	ItemIDs        []string `json:"itemIds" validate:"required,min=1,dive,required"`
	TargetDay      int      `json:"targetDay" validate:"required,min=1"`
	TargetSession  int      `json:"targetSession" validate:"required,min=1"`
	TargetPosition int      `json:"targetPosition" validate:"required,min=1"`
}

// ScheduleItemView decorates a stored item with derived display fields.
type ScheduleItemView struct {
	models.ScheduleItem
	StartTime  *time.Time `json:"start_time,omitempty"`
	EntryTitle string     `json:"entry_title,omitempty"`
	StudioCode string     `json:"studio_code,omitempty"`
}

// ScheduleDayResponse is the operator view of one competition day: items with
// derived times plus the current conflict and award analyses.
type ScheduleDayResponse struct {
	ScheduleID string                `json:"schedule_id"`
	DayNumber  int                   `json:"day_number"`
	Items      []ScheduleItemView    `json:"items"`
	Conflicts  []models.Conflict     `json:"conflicts"`
	Awards     []models.AwardMarker  `json:"awards"`
	Generated  time.Time             `json:"generated_at"`
	Status     models.ScheduleStatus `json:"status"`
}
