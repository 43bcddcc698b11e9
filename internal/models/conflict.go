package models

// ConflictSeverity grades how serious a dancer double-booking is.
type ConflictSeverity string

const (
	ConflictSeverityCritical ConflictSeverity = "CRITICAL"
	ConflictSeverityError    ConflictSeverity = "ERROR"
	ConflictSeverityWarning  ConflictSeverity = "WARNING"
)

// Conflict is a derived record flagging a dancer scheduled in two routines too
// close together within the same (day, session). Conflicts are recomputed on
// demand and never persisted authoritatively.
type Conflict struct {
	ID              string           `json:"id"`
	DancerID        string           `json:"dancer_id"`
	Routine1ItemID  string           `json:"routine1_item_id"`
	Routine2ItemID  string           `json:"routine2_item_id"`
	DayNumber       int              `json:"day_number"`
	SessionNumber   int              `json:"session_number"`
	RoutinesBetween int              `json:"routines_between"`
	GapMinutes      int              `json:"gap_minutes"`
	Severity        ConflictSeverity `json:"severity"`
	Message         string           `json:"message"`
}
