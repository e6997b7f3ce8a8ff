package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/jobs"
)

// SubmissionLogJobType tags queue jobs that persist a submission log entry.
const SubmissionLogJobType = "submission_log"

const (
	defaultSubmissionListLimit = 50
	maxSubmissionListLimit     = 200
)

type submissionLogRepository interface {
	Insert(ctx context.Context, entry *models.SubmissionLog) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionLog, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SubmissionLogService keeps the audit trail of accepted submissions.
// Without a repository every operation is a no-op.
type SubmissionLogService struct {
	repo   submissionLogRepository
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewSubmissionLogService constructs the service.
func NewSubmissionLogService(repo submissionLogRepository, logger *zap.Logger) *SubmissionLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionLogService{repo: repo, logger: logger}
}

// UseQueue makes Record asynchronous. The queue's handler must be HandleJob.
func (s *SubmissionLogService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// Record stores entry, through the queue when one is attached.
func (s *SubmissionLogService) Record(ctx context.Context, entry *models.SubmissionLog) error {
	if s.repo == nil || entry == nil {
		return nil
	}
	if s.queue == nil {
		return s.repo.Insert(ctx, entry)
	}
	return s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: SubmissionLogJobType, Payload: entry})
}

// HandleJob is the queue handler writing one entry.
func (s *SubmissionLogService) HandleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.SubmissionLog)
	if !ok {
		s.logger.Error("unexpected submission log payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return err
	}
	s.logger.Debug("submission logged", zap.String("review_id", entry.ReviewID), zap.Int("attempt", job.Attempt))
	return nil
}

// List returns recent entries, newest first.
func (s *SubmissionLogService) List(ctx context.Context, filter models.SubmissionFilter) (*dto.SubmissionListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSubmissionListLimit
	}
	if filter.Limit > maxSubmissionListLimit {
		filter.Limit = maxSubmissionListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Category != "" {
		if _, err := models.ParseCategory(string(filter.Category)); err != nil {
			return nil, err
		}
	}
	resp := &dto.SubmissionListResponse{Items: []models.SubmissionLog{}, Limit: filter.Limit, Offset: filter.Offset}
	if s.repo == nil {
		return resp, nil
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if items != nil {
		resp.Items = items
	}
	return resp, nil
}

// CountSince counts entries submitted at or after since.
func (s *SubmissionLogService) CountSince(ctx context.Context, since time.Time) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.CountSince(ctx, since)
}

func newSubmissionLog(reviewer string, payload models.SubmissionPayload, summary models.SelectionSummary, at time.Time) (*models.SubmissionLog, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &models.SubmissionLog{
		ID:          uuid.NewString(),
		ReviewID:    payload.ReviewID,
		Category:    payload.Category,
		Ticker:      payload.Ticker,
		Reviewer:    reviewer,
		RecordCount: len(payload.Records),
		Approved:    summary.Approved,
		Rejected:    summary.Rejected,
		Deleted:     summary.Deleted,
		Payload:     raw,
		SubmittedAt: at,
	}, nil
}
