package models

import (
	"time"

	"github.com/lib/pq"
)

// Entry is a confirmed routine owned by the entry-management subsystem.
// This engine reads entries but never creates or deletes them.
type Entry struct {
	ID              string         `db:"id" json:"id"`
	CompetitionID   string         `db:"competition_id" json:"competition_id"`
	StudioID        string         `db:"studio_id" json:"studio_id"`
	Title           string         `db:"title" json:"title"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	ParticipantIDs  pq.StringArray `db:"participant_dancer_ids" json:"participant_dancer_ids"`
	SizeCategory    string         `db:"size_category" json:"size_category"`
	AgeGroup        string         `db:"age_group" json:"age_group"`
	Classification  string         `db:"classification" json:"classification"`
	Confirmed       bool           `db:"confirmed" json:"confirmed"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// AwardGroupKey returns the (size, age, classification) grouping key used for
// trophy/overall placement.
func (e Entry) AwardGroupKey() string {
	return e.SizeCategory + "|" + e.AgeGroup + "|" + e.Classification
}
