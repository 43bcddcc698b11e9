package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/dto"
	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
)

type studioCodeStore interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]models.StudioCodeAssignment, error)
	ListApprovedPending(ctx context.Context, competitionID string) ([]models.Reservation, error)
	NextSeq(ctx context.Context, tx *sqlx.Tx, competitionID string) (int, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, assignment *models.StudioCodeAssignment) error
}

// StudioCodeService assigns anonymized blind-judging letter codes to studios
// in reservation-approval order. Assignment is append-only: a studio's code
// never changes once written, regardless of later approvals.
type StudioCodeService struct {
	repo    studioCodeStore
	locks   *keyedMutex
	metrics *MetricsService
	logger  *zap.Logger
}

// NewStudioCodeService constructs a StudioCodeService.
func NewStudioCodeService(repo studioCodeStore, locks *keyedMutex, metrics *MetricsService, logger *zap.Logger) *StudioCodeService {
	if locks == nil {
		locks = newKeyedMutex()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudioCodeService{repo: repo, locks: locks, metrics: metrics, logger: logger}
}

// CodeForIndex maps a 0-based sequence index to its letter code using the
// bijective base-26 scheme of spreadsheet columns: 0..25 -> A..Z, 26 -> AA,
// 51 -> AZ, 52 -> BA, 701 -> ZZ, 702 -> AAA. There is no zero letter, so this
// is deliberately not a positional base-26 conversion.
func CodeForIndex(index int) string {
	if index < 0 {
		return ""
	}
	buf := make([]byte, 0, 4)
	for i := index; i >= 0; i = i/26 - 1 {
		buf = append(buf, byte('A'+i%26))
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

// AssignCodes claims codes for every approved reservation that has none yet.
// Calls are serialized per competition; the sequence claim happens inside the
// same transaction as the insert so indices never collide or skip. Calling
// again with no new approvals returns an empty delta.
func (s *StudioCodeService) AssignCodes(ctx context.Context, competitionID string) (*dto.AssignCodesResponse, error) {
	unlock := s.locks.Lock("codes:" + competitionID)
	defer unlock()

	pending, err := s.repo.ListApprovedPending(ctx, competitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending reservations")
	}

	existing, err := s.repo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load code assignments")
	}

	if len(pending) == 0 {
		return &dto.AssignCodesResponse{Assigned: []models.StudioCodeAssignment{}, Total: len(existing)}, nil
	}

	tx, err := s.repo.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin code assignment")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var nextSeq int
	nextSeq, err = s.repo.NextSeq(ctx, tx, competitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim code sequence")
	}

	assigned := make([]models.StudioCodeAssignment, 0, len(pending))
	now := time.Now().UTC()
	for i, reservation := range pending {
		approvedAt := now
		if reservation.ApprovedAt != nil {
			approvedAt = *reservation.ApprovedAt
		}
		assignment := models.StudioCodeAssignment{
			CompetitionID:         competitionID,
			StudioID:              reservation.StudioID,
			Seq:                   nextSeq + i,
			Code:                  CodeForIndex(nextSeq + i),
			AssignedAt:            now,
			ReservationApprovedAt: approvedAt,
		}
		if err = s.repo.Insert(ctx, tx, &assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert code assignment")
		}
		assigned = append(assigned, assignment)
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit code assignment")
	}

	if s.metrics != nil {
		s.metrics.RecordCodeAssignments(len(assigned))
	}
	s.logger.Info("studio codes assigned",
		zap.String("competition_id", competitionID),
		zap.Int("count", len(assigned)))

	return &dto.AssignCodesResponse{Assigned: assigned, Total: len(existing) + len(assigned)}, nil
}

// Table returns the assigned codes plus approved reservations still pending.
func (s *StudioCodeService) Table(ctx context.Context, competitionID string) (*models.StudioCodeTable, error) {
	assigned, err := s.repo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load code assignments")
	}
	pending, err := s.repo.ListApprovedPending(ctx, competitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending reservations")
	}
	return &models.StudioCodeTable{Assigned: assigned, Pending: pending}, nil
}
