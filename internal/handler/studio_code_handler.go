package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	"github.com/onstage-hq/onstage-api/pkg/response"
)

type studioCodeAssigner interface {
	AssignCodes(ctx context.Context, competitionID string) (*dto.AssignCodesResponse, error)
	Table(ctx context.Context, competitionID string) (*models.StudioCodeTable, error)
}

// StudioCodeHandler exposes blind-judging code endpoints.
type StudioCodeHandler struct {
	service studioCodeAssigner
}

// NewStudioCodeHandler constructs the handler.
func NewStudioCodeHandler(svc studioCodeAssigner) *StudioCodeHandler {
	return &StudioCodeHandler{service: svc}
}

// Assign godoc
// @Summary Assign letter codes to newly approved studios
// @Description Codes follow reservation-approval order and never change once assigned. Re-running with no new approvals is a no-op.
// @Tags StudioCodes
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/studio-codes/assign [post]
func (h *StudioCodeHandler) Assign(c *gin.Context) {
	result, err := h.service.AssignCodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Table godoc
// @Summary List assigned codes and approved studios still awaiting one
// @Tags StudioCodes
// @Produce json
// @Param id path string true "Competition ID"
// @Success 200 {object} response.Envelope
// @Router /competitions/{id}/studio-codes [get]
func (h *StudioCodeHandler) Table(c *gin.Context) {
	table, err := h.service.Table(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, table, nil)
}
