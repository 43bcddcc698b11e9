package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	"github.com/onstage-hq/onstage-api/internal/service"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

type scheduleManagerMock struct {
	schedule  *models.Schedule
	insertErr error
	inserted  *models.ScheduleItem
	dayResp   *dto.ScheduleDayResponse
	dayOpts   service.DayViewOptions
}

func (m *scheduleManagerMock) CreateSchedule(ctx context.Context, competitionID string, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	return m.schedule, nil
}

func (m *scheduleManagerMock) GetByCompetition(ctx context.Context, competitionID string) (*models.Schedule, error) {
	if m.schedule == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "competition has no schedule")
	}
	return m.schedule, nil
}

func (m *scheduleManagerMock) GetSummary(ctx context.Context, competitionID string) (*models.ScheduleSummary, error) {
	return &models.ScheduleSummary{Schedule: *m.schedule}, nil
}

func (m *scheduleManagerMock) GetDay(ctx context.Context, competitionID string, day int, opts service.DayViewOptions) (*dto.ScheduleDayResponse, error) {
	m.dayOpts = opts
	return m.dayResp, nil
}

func (m *scheduleManagerMock) InsertItem(ctx context.Context, competitionID string, req dto.InsertItemRequest) (*models.ScheduleItem, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	return m.inserted, nil
}

func (m *scheduleManagerMock) RemoveItem(ctx context.Context, competitionID, itemID string) error {
	return m.insertErr
}

func (m *scheduleManagerMock) Lock(ctx context.Context, competitionID string, actor service.Actor) (*models.Schedule, error) {
	return m.schedule, nil
}

func (m *scheduleManagerMock) Unlock(ctx context.Context, competitionID string, actor service.Actor) (*models.Schedule, error) {
	return m.schedule, nil
}

func (m *scheduleManagerMock) AuditTrail(ctx context.Context, scheduleID string) ([]models.AuditLog, error) {
	return nil, nil
}

func (m *scheduleManagerMock) SessionStartsFor(schedule *models.Schedule) service.SessionStartFunc {
	return service.FixedSessionStart(time.Now())
}

func newTestContext(t *testing.T, method, path string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestScheduleHandlerDayRejectsBadDayParam(t *testing.T) {
	handler := NewScheduleHandler(&scheduleManagerMock{}, nil, nil, nil, nil, nil)
	c, w := newTestContext(t, http.MethodGet, "/competitions/comp-1/schedule/days/zero", nil)
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}, {Key: "day", Value: "zero"}}

	handler.Day(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerDayParsesOverrides(t *testing.T) {
	mock := &scheduleManagerMock{dayResp: &dto.ScheduleDayResponse{DayNumber: 1}}
	handler := NewScheduleHandler(mock, nil, nil, nil, nil, nil)
	c, w := newTestContext(t, http.MethodGet, "/competitions/comp-1/schedule/days/1?sessionStart=2026-03-14T09%3A30%3A00Z&gapEntries=5&gapMinutes=20", nil)
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}, {Key: "day", Value: "1"}}

	handler.Day(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.dayOpts.SessionStart)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), mock.dayOpts.SessionStart.UTC())
	assert.Equal(t, 5, mock.dayOpts.GapEntries)
	assert.Equal(t, 20, mock.dayOpts.GapMinutes)
}

func TestScheduleHandlerInsertItemLockedConflict(t *testing.T) {
	mock := &scheduleManagerMock{insertErr: appErrors.ErrScheduleLocked}
	handler := NewScheduleHandler(mock, nil, nil, nil, nil, nil)
	label := "Lunch"
	c, w := newTestContext(t, http.MethodPost, "/competitions/comp-1/schedule/items", dto.InsertItemRequest{
		ItemType: "BREAK", DayNumber: 1, SessionNumber: 1, Position: 1, DurationMinutes: 30, Label: &label,
	})
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.InsertItem(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrScheduleLocked.Code, envelope.Error.Code)
}

func TestScheduleHandlerInsertItemRejectsMalformedBody(t *testing.T) {
	handler := NewScheduleHandler(&scheduleManagerMock{}, nil, nil, nil, nil, nil)
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/competitions/comp-1/schedule/items", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.InsertItem(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerCreateReturnsCreated(t *testing.T) {
	mock := &scheduleManagerMock{schedule: &models.Schedule{ID: "sch-1", CompetitionID: "comp-1", Status: models.ScheduleStatusDraft}}
	handler := NewScheduleHandler(mock, nil, nil, nil, nil, nil)
	c, w := newTestContext(t, http.MethodPost, "/competitions/comp-1/schedule", dto.CreateScheduleRequest{StartDate: "2026-03-14"})
	c.Params = gin.Params{{Key: "id", Value: "comp-1"}}

	handler.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}
