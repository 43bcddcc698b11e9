package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	"github.com/onstage-hq/onstage-api/internal/service"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
	"github.com/onstage-hq/onstage-api/pkg/response"
)

type scheduleManager interface {
	CreateSchedule(ctx context.Context, competitionID string, req dto.CreateScheduleRequest) (*models.Schedule, error)
	GetByCompetition(ctx context.Context, competitionID string) (*models.Schedule, error)
	GetSummary(ctx context.Context, competitionID string) (*models.ScheduleSummary, error)
	GetDay(ctx context.Context, competitionID string, day int, opts service.DayViewOptions) (*dto.ScheduleDayResponse, error)
	InsertItem(ctx context.Context, competitionID string, req dto.InsertItemRequest) (*models.ScheduleItem, error)
	RemoveItem(ctx context.Context, competitionID, itemID string) error
	Lock(ctx context.Context, competitionID string, actor service.Actor) (*models.Schedule, error)
	Unlock(ctx context.Context, competitionID string, actor service.Actor) (*models.Schedule, error)
	AuditTrail(ctx context.Context, scheduleID string) ([]models.AuditLog, error)
	SessionStartsFor(schedule *models.Schedule) service.SessionStartFunc
}

type scheduleGenerator interface {
	AutoGenerate(ctx context.Context, competitionID string, req dto.AutoGenerateRequest) (*models.Schedule, []models.ScheduleItem, error)
}

type scheduleReorderer interface {
	Reorder(ctx context.Context, competitionID string, req dto.ReorderRequest) ([]models.ScheduleItem, error)
}

type conflictDetector interface {
	Detect(ctx context.Context, schedule *models.Schedule, gapEntries, gapMinutes int) ([]models.Conflict, error)
}

type awardPlacer interface {
	Place(ctx context.Context, schedule *models.Schedule) ([]models.AwardMarker, error)
}

type runSheetExporter interface {
	RunSheet(ctx context.Context, schedule *models.Schedule, startFor service.SessionStartFunc, format service.ExportFormat) (*service.ExportArtifact, error)
}

// ScheduleHandler exposes the schedule builder and conflict engine endpoints.
type ScheduleHandler struct {
	schedules scheduleManager
	generator scheduleGenerator
	reorder   scheduleReorderer
	conflicts conflictDetector
	awards    awardPlacer
	exports   runSheetExporter
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(schedules scheduleManager, generator scheduleGenerator, reorder scheduleReorderer, conflicts conflictDetector, awards awardPlacer, exports runSheetExporter) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		generator: generator,
		reorder:   reorder,
		conflicts: conflicts,
		awards:    awards,
		exports:   exports,
	}
}

// Create godoc
// @Summary Create an empty draft schedule for a competition
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param payload body dto.CreateScheduleRequest true "Create schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /competitions/{id}/schedule [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.schedules.CreateSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// AutoGenerate godoc
// @Summary Generate a draft schedule from the confirmed entry list
// @Description Distributes confirmed entries evenly across day/session slots in catalog order. Fails if the competition already has a schedule.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param payload body dto.AutoGenerateRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /competitions/{id}/schedule/auto-generate [post]
func (h *ScheduleHandler) AutoGenerate(c *gin.Context) {
	var req dto.AutoGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	schedule, items, err := h.generator.AutoGenerate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"schedule": schedule, "items": items})
}

// Summary godoc
// @Summary Get the schedule with per-day aggregates
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/schedule [get]
func (h *ScheduleHandler) Summary(c *gin.Context) {
	summary, err := h.schedules.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Day godoc
// @Summary Get the derived view of one competition day
// @Description Items with start times, entry titles and blind studio codes, plus the day's conflicts and award markers. sessionStart (RFC3339) overrides the configured session clock; gapEntries/gapMinutes override conflict thresholds.
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Param day path int true "Day number (1-based)"
// @Param sessionStart query string false "Session start override (RFC3339)"
// @Param gapEntries query int false "Minimum routines between appearances"
// @Param gapMinutes query int false "Minimum minutes between appearances"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/schedule/days/{day} [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be a positive integer"))
		return
	}

	var opts service.DayViewOptions
	if raw := c.Query("sessionStart"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionStart must be RFC3339"))
			return
		}
		opts.SessionStart = &at
	}
	if raw := c.Query("gapEntries"); raw != "" {
		if opts.GapEntries, err = strconv.Atoi(raw); err != nil || opts.GapEntries < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "gapEntries must be a non-negative integer"))
			return
		}
	}
	if raw := c.Query("gapMinutes"); raw != "" {
		if opts.GapMinutes, err = strconv.Atoi(raw); err != nil || opts.GapMinutes < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "gapMinutes must be a non-negative integer"))
			return
		}
	}

	view, err := h.schedules.GetDay(c.Request.Context(), c.Param("id"), day, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// InsertItem godoc
// @Summary Insert a routine, break or award marker at a position
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param payload body dto.InsertItemRequest true "Insert payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /competitions/{id}/schedule/items [post]
func (h *ScheduleHandler) InsertItem(c *gin.Context) {
	var req dto.InsertItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}
	item, err := h.schedules.InsertItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// RemoveItem godoc
// @Summary Remove an item and close the running-order gap
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Param itemId path string true "Schedule item ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /competitions/{id}/schedule/items/{itemId} [delete]
func (h *ScheduleHandler) RemoveItem(c *gin.Context) {
	if err := h.schedules.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Move one or many items as a contiguous block
// @Description Atomic: the move either commits with every affected session dense and 1-based, or rolls back leaving the order untouched.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param payload body dto.ReorderRequest true "Reorder payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /competitions/{id}/schedule/reorder [post]
func (h *ScheduleHandler) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reorder payload"))
		return
	}
	items, err := h.reorder.Reorder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Lock godoc
// @Summary Lock the schedule, finalising the running order
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/schedule/lock [post]
func (h *ScheduleHandler) Lock(c *gin.Context) {
	schedule, err := h.schedules.Lock(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Unlock godoc
// @Summary Unlock the schedule for further mutation (admin only)
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /competitions/{id}/schedule/unlock [post]
func (h *ScheduleHandler) Unlock(c *gin.Context) {
	schedule, err := h.schedules.Unlock(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Conflicts godoc
// @Summary Run the dancer-gap conflict detection pass
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Param gapEntries query int false "Minimum routines between appearances"
// @Param gapMinutes query int false "Minimum minutes between appearances"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/schedule/conflicts [get]
func (h *ScheduleHandler) Conflicts(c *gin.Context) {
	schedule, err := h.schedules.GetByCompetition(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	gapEntries, gapMinutes := 0, 0
	if raw := c.Query("gapEntries"); raw != "" {
		if gapEntries, err = strconv.Atoi(raw); err != nil || gapEntries < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "gapEntries must be a non-negative integer"))
			return
		}
	}
	if raw := c.Query("gapMinutes"); raw != "" {
		if gapMinutes, err = strconv.Atoi(raw); err != nil || gapMinutes < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "gapMinutes must be a non-negative integer"))
			return
		}
	}
	conflicts, err := h.conflicts.Detect(c.Request.Context(), schedule, gapEntries, gapMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Awards godoc
// @Summary Compute award placement markers per (size, age, classification) group
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/schedule/awards [get]
func (h *ScheduleHandler) Awards(c *gin.Context) {
	schedule, err := h.schedules.GetByCompetition(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	markers, err := h.awards.Place(c.Request.Context(), schedule)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, markers, nil)
}

// Export godoc
// @Summary Download the run sheet as CSV or PDF
// @Description Judge-facing run sheet: studios appear only by their blind letter code.
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /competitions/{id}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	schedule, err := h.schedules.GetByCompetition(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	artifact, err := h.exports.RunSheet(c.Request.Context(), schedule, h.schedules.SessionStartsFor(schedule), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+artifact.FileName)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// AuditTrail godoc
// @Summary List the lock/unlock audit trail of the schedule
// @Tags Schedule
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/schedule/audit [get]
func (h *ScheduleHandler) AuditTrail(c *gin.Context) {
	schedule, err := h.schedules.GetByCompetition(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	logs, err := h.schedules.AuditTrail(c.Request.Context(), schedule.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
