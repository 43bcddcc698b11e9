package models

import "time"

// StudioCodeAssignment binds a blind-judging letter code to a studio within a
// competition. Assignments are append-only: a code is never reassigned or
// reordered once written.
type StudioCodeAssignment struct {
	ID                    string    `db:"id" json:"id"`
	CompetitionID         string    `db:"competition_id" json:"competition_id"`
	StudioID              string    `db:"studio_id" json:"studio_id"`
	Seq                   int       `db:"seq" json:"seq"`
	Code                  string    `db:"code" json:"code"`
	AssignedAt            time.Time `db:"assigned_at" json:"assigned_at"`
	ReservationApprovedAt time.Time `db:"reservation_approved_at" json:"reservation_approved_at"`
}

// Reservation is the external approval event feeding code assignment.
type Reservation struct {
	ID            string     `db:"id" json:"id"`
	CompetitionID string     `db:"competition_id" json:"competition_id"`
	StudioID      string     `db:"studio_id" json:"studio_id"`
	ApprovedAt    *time.Time `db:"approved_at" json:"approved_at,omitempty"`
}

// StudioCodeTable is the operator view of assigned and pending codes.
type StudioCodeTable struct {
	Assigned []StudioCodeAssignment `json:"assigned"`
	Pending  []Reservation          `json:"pending"`
}
