package models

// AwardMarker flags the last-performed routine of an award group as the
// trophy/overall placement point. Derived, recomputed on every structural
// change.
type AwardMarker struct {
	GroupKey       string `json:"group_key"`
	SizeCategory   string `json:"size_category"`
	AgeGroup       string `json:"age_group"`
	Classification string `json:"classification"`
	LastItemID     string `json:"last_item_id"`
	DayNumber      int    `json:"day_number"`
	SessionNumber  int    `json:"session_number"`
	RunningOrder   int    `json:"running_order"`
	RoutineCount   int    `json:"routine_count"`
}
