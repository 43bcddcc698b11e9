package dto

import "github.com/onstage-hq/onstage-api/internal/models"

// AssignCodesResponse reports the delta of a code-assignment pass. Assigned
// contains only newly written assignments; an empty slice means every approved
// reservation already held a code.
type AssignCodesResponse struct {
	Assigned []models.StudioCodeAssignment `json:"assigned"`
	Total    int                           `json:"total"`
}
