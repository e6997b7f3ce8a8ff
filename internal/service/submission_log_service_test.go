package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/jobs"
)

type memorySubmissionRepo struct {
	mu       sync.Mutex
	inserted []*models.SubmissionLog
	filter   models.SubmissionFilter
	listErr  error
}

func (m *memorySubmissionRepo) Insert(ctx context.Context, entry *models.SubmissionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, entry)
	return nil
}

func (m *memorySubmissionRepo) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionLog, error) {
	m.filter = filter
	return nil, m.listErr
}

func (m *memorySubmissionRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted), nil
}

func (m *memorySubmissionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

func TestSubmissionLogServiceWithoutRepository(t *testing.T) {
	svc := NewSubmissionLogService(nil, nil)
	require.NoError(t, svc.Record(context.Background(), &models.SubmissionLog{ID: "x"}))

	n, err := svc.CountSince(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	res, err := svc.List(context.Background(), models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, defaultSubmissionListLimit, res.Limit)
}

func TestSubmissionLogServiceListClampsFilter(t *testing.T) {
	repo := &memorySubmissionRepo{}
	svc := NewSubmissionLogService(repo, nil)

	res, err := svc.List(context.Background(), models.SubmissionFilter{Limit: 5000, Offset: -3, Category: models.CategoryIndication})
	require.NoError(t, err)
	assert.Equal(t, maxSubmissionListLimit, repo.filter.Limit)
	assert.Zero(t, repo.filter.Offset)
	assert.NotNil(t, res.Items)

	_, err = svc.List(context.Background(), models.SubmissionFilter{Category: "trial"})
	assert.True(t, errors.Is(err, appErrors.ErrUnknownCategory))

	repo.listErr = errors.New("connection reset")
	_, err = svc.List(context.Background(), models.SubmissionFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestSubmissionLogServiceRecordsThroughQueue(t *testing.T) {
	repo := &memorySubmissionRepo{}
	svc := NewSubmissionLogService(repo, nil)
	queue := jobs.NewQueue("submission-log", svc.HandleJob, jobs.QueueConfig{Workers: 1, BufferSize: 4})
	queue.Start(context.Background())
	svc.UseQueue(queue)

	require.NoError(t, svc.Record(context.Background(), &models.SubmissionLog{ID: "log-1", ReviewID: "rev-1"}))
	queue.Stop()

	require.Equal(t, 1, repo.count())
	assert.Equal(t, "rev-1", repo.inserted[0].ReviewID)
}

func TestSubmissionLogServiceHandleJobIgnoresForeignPayload(t *testing.T) {
	repo := &memorySubmissionRepo{}
	svc := NewSubmissionLogService(repo, nil)
	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j", Payload: "nope"}))
	assert.Zero(t, repo.count())
}

func TestNewSubmissionLogCountsDecisions(t *testing.T) {
	payload := models.SubmissionPayload{ReviewID: "rev-9", Category: models.CategoryAsset, Ticker: "ACME"}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry, err := newSubmissionLog("alice", payload, models.SelectionSummary{Approved: 2, Rejected: 1, Deleted: 3}, at)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "alice", entry.Reviewer)
	assert.Equal(t, 3, entry.Deleted)
	assert.Equal(t, at, entry.SubmittedAt)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Payload, &decoded))
	assert.Equal(t, "rev-9", decoded["reviewId"])
}
