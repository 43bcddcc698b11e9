package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/models"
	"github.com/onstage-hq/onstage-api/pkg/config"
	"github.com/onstage-hq/onstage-api/pkg/jobs"
)

const (
	notificationScheduleLocked    = "schedule.locked"
	notificationScheduleUnlocked  = "schedule.unlocked"
	notificationConflictsDetected = "schedule.conflicts_detected"
)

type notificationPayload struct {
	Event         string    `json:"event"`
	ScheduleID    string    `json:"scheduleId"`
	CompetitionID string    `json:"competitionId"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NotificationService delivers schedule lifecycle events to a webhook through
// the background queue. Delivery is fire-and-forget: failures retry in the
// queue and never propagate to the mutation path.
type NotificationService struct {
	queue      *jobs.Queue
	client     *http.Client
	webhookURL string
	enabled    bool
	logger     *zap.Logger
}

// NewNotificationService constructs a NotificationService and its queue.
func NewNotificationService(cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	svc := &NotificationService{
		client:     &http.Client{Timeout: timeout},
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled && cfg.WebhookURL != "",
		logger:     logger,
	}
	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Stop()
}

// ScheduleLocked announces a lock or unlock transition.
func (s *NotificationService) ScheduleLocked(schedule *models.Schedule, locked bool) {
	event := notificationScheduleLocked
	if !locked {
		event = notificationScheduleUnlocked
	}
	s.publish(notificationPayload{
		Event:         event,
		ScheduleID:    schedule.ID,
		CompetitionID: schedule.CompetitionID,
		OccurredAt:    time.Now().UTC(),
	})
}

// ConflictsDetected announces the outcome of a detection pass that found
// at least one critical conflict.
func (s *NotificationService) ConflictsDetected(schedule *models.Schedule, conflicts []models.Conflict) {
	critical := 0
	for _, conflict := range conflicts {
		if conflict.Severity == models.ConflictSeverityCritical {
			critical++
		}
	}
	if critical == 0 {
		return
	}
	s.publish(notificationPayload{
		Event:         notificationConflictsDetected,
		ScheduleID:    schedule.ID,
		CompetitionID: schedule.CompetitionID,
		Detail:        fmt.Sprintf("%d critical conflicts in %d total", critical, len(conflicts)),
		OccurredAt:    time.Now().UTC(),
	})
}

func (s *NotificationService) publish(payload notificationPayload) {
	if s == nil || !s.enabled {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    payload.Event,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("notification enqueue failed", zap.String("event", payload.Event), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationPayload)
	if !ok {
		s.logger.Error("notification job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
