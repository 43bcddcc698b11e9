package models

import "time"

// ScheduleStatus represents the lifecycle state of a competition schedule.
type ScheduleStatus string

const (
	ScheduleStatusDraft  ScheduleStatus = "DRAFT"
	ScheduleStatusLocked ScheduleStatus = "LOCKED"
)

// ItemType distinguishes the kinds of units placed in a running order.
type ItemType string

const (
	ItemTypeRoutine ItemType = "ROUTINE"
	ItemTypeBreak   ItemType = "BREAK"
	ItemTypeAward   ItemType = "AWARD"
)

// Schedule is the single per-competition schedule container. Once locked,
// every structural mutation is rejected until an audited unlock.
type Schedule struct {
	ID            string         `db:"id" json:"id"`
	CompetitionID string         `db:"competition_id" json:"competition_id"`
	Status        ScheduleStatus `db:"status" json:"status"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	LockedAt      *time.Time     `db:"locked_at" json:"locked_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Locked reports whether the schedule rejects structural mutations.
func (s *Schedule) Locked() bool {
	return s != nil && s.Status == ScheduleStatusLocked
}

// ScheduleItem is one ordered unit within a (day, session). RunningOrder is
// 1-based, unique and dense per (schedule, day, session).
type ScheduleItem struct {
	ID              string    `db:"id" json:"id"`
	ScheduleID      string    `db:"schedule_id" json:"schedule_id"`
	ItemType        ItemType  `db:"item_type" json:"item_type"`
	DayNumber       int       `db:"day_number" json:"day_number"`
	SessionNumber   int       `db:"session_number" json:"session_number"`
	RunningOrder    int       `db:"running_order" json:"running_order"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	EntryID         *string   `db:"entry_id" json:"entry_id,omitempty"`
	Label           *string   `db:"label" json:"label,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SessionKey identifies a (day, session) bucket within a schedule.
type SessionKey struct {
	Day     int
	Session int
}

// Session returns the item's (day, session) bucket.
func (i ScheduleItem) Session() SessionKey {
	return SessionKey{Day: i.DayNumber, Session: i.SessionNumber}
}

// ScheduleSummary aggregates item counts for list views.
type ScheduleSummary struct {
	Schedule     Schedule    `json:"schedule"`
	ItemCount    int         `json:"item_count"`
	RoutineCount int         `json:"routine_count"`
	Days         []DayDigest `json:"days"`
}

// DayDigest summarises one competition day.
type DayDigest struct {
	DayNumber int `json:"day_number" db:"day_number"`
	Sessions  int `json:"sessions" db:"sessions"`
	Items     int `json:"items" db:"items"`
}
