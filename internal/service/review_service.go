package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/internal/dto"
	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

// pendingCacheKey is suffixed with the username; lists are fetched with that reviewer's token.
const pendingCacheKey = "reviews:pending"

type reviewBackend interface {
	ListPending(ctx context.Context, token string) ([]models.PendingReview, error)
	GetReview(ctx context.Context, token, reviewID string) (*models.ReviewJob, error)
	Submit(ctx context.Context, token string, payload models.SubmissionPayload) error
}

type submissionLogger interface {
	Record(ctx context.Context, entry *models.SubmissionLog) error
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type sessionInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

type workspaceExporter interface {
	Render(store *ReviewStateStore, format ExportFormat) (*ExportFile, error)
}

// ReviewServiceConfig tunes review orchestration.
type ReviewServiceConfig struct {
	PendingCacheTTL time.Duration
}

// ReviewServiceParams groups constructor dependencies.
type ReviewServiceParams struct {
	Backend     reviewBackend
	Workspaces  *WorkspaceRegistry
	Cache       *CacheService
	Submissions submissionLogger
	Sessions    sessionInvalidator
	Exporter    workspaceExporter
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      ReviewServiceConfig
}

// ReviewService drives the review workflow of a session: list, open, edit, decide, submit.
type ReviewService struct {
	backend     reviewBackend
	workspaces  *WorkspaceRegistry
	cache       *CacheService
	submissions submissionLogger
	sessions    sessionInvalidator
	exporter    workspaceExporter
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         ReviewServiceConfig
}

// NewReviewService constructs a ReviewService.
func NewReviewService(params ReviewServiceParams) *ReviewService {
	cfg := params.Config
	if cfg.PendingCacheTTL <= 0 {
		cfg.PendingCacheTTL = 30 * time.Second
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workspaces := params.Workspaces
	if workspaces == nil {
		workspaces = NewWorkspaceRegistry()
	}
	exporter := params.Exporter
	if exporter == nil {
		exporter = NewExportService(nil, nil)
	}
	return &ReviewService{
		backend:     params.Backend,
		workspaces:  workspaces,
		cache:       params.Cache,
		submissions: params.Submissions,
		sessions:    params.Sessions,
		exporter:    exporter,
		metrics:     params.Metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		cfg:         cfg,
	}
}

// ListPending returns the backend queue, optionally narrowed to one category, newest first.
// The boolean reports whether the list came from cache.
func (s *ReviewService) ListPending(ctx context.Context, sess *models.Session, category string) (*dto.PendingListResponse, bool, error) {
	var filter models.Category
	if category != "" {
		parsed, err := models.ParseCategory(category)
		if err != nil {
			return nil, false, err
		}
		filter = parsed
	}

	items, hit, err := s.pending(ctx, sess)
	if err != nil {
		return nil, false, err
	}

	resp := &dto.PendingListResponse{
		Items:  make([]models.PendingReview, 0, len(items)),
		Counts: make(map[models.Category]int, len(models.Categories)),
		Total:  len(items),
	}
	for _, c := range models.Categories {
		resp.Counts[c] = 0
	}
	for _, item := range items {
		resp.Counts[item.Category]++
		if filter == "" || item.Category == filter {
			resp.Items = append(resp.Items, item)
		}
	}
	sort.SliceStable(resp.Items, func(i, j int) bool {
		return resp.Items[i].SubmittedAt.After(resp.Items[j].SubmittedAt)
	})
	return resp, hit, nil
}

func (s *ReviewService) pending(ctx context.Context, sess *models.Session) ([]models.PendingReview, bool, error) {
	key := pendingCacheKey + ":" + sess.Username
	var cached []models.PendingReview
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}
	items, err := s.backend.ListPending(ctx, sess.UpstreamToken)
	if err != nil {
		return nil, false, s.upstreamFailure(ctx, sess, "list pending reviews", err)
	}
	if err := s.cache.Set(ctx, key, items, s.cfg.PendingCacheTTL); err != nil {
		s.logger.Debug("pending list not cached", zap.Error(err))
	}
	return items, false, nil
}

// Open returns the session's workspace for the review, hydrating it from the backend on first access or when reload is set.
func (s *ReviewService) Open(ctx context.Context, sess *models.Session, reviewID string, reload bool) (*dto.WorkspaceView, error) {
	if reviewID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review id is required")
	}
	if !reload {
		if store, ok := s.workspaces.Get(sess.ID, reviewID); ok {
			return buildWorkspaceView(store), nil
		}
	}

	job, err := s.backend.GetReview(ctx, sess.UpstreamToken, reviewID)
	if err != nil {
		return nil, s.upstreamFailure(ctx, sess, "load review", err)
	}
	if job.ID == "" {
		job.ID = reviewID
	}
	store, err := HydrateStore(job)
	if err != nil {
		s.logger.Warn("review could not be hydrated", zap.String("review_id", reviewID), zap.Error(err))
		return nil, err
	}
	s.workspaces.Put(sess.ID, store)
	s.metrics.RecordWorkspaceOpened(store.Category())
	s.logger.Info("review workspace opened",
		zap.String("review_id", reviewID),
		zap.String("category", string(store.Category())),
		zap.Int("records", store.Len()),
		zap.Bool("reload", reload),
	)
	return buildWorkspaceView(store), nil
}

// EditField sets the current value of one field of one record.
func (s *ReviewService) EditField(ctx context.Context, sess *models.Session, reviewID string, index int, field string, value models.Value) (*dto.RecordMutationResponse, error) {
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	if err := store.EditField(index, field, value); err != nil {
		return nil, err
	}
	return recordMutation(store, index)
}

// SetDisposition records the reviewer's decision for one record.
func (s *ReviewService) SetDisposition(ctx context.Context, sess *models.Session, reviewID string, index int, raw string) (*dto.RecordMutationResponse, error) {
	d, err := models.ParseDisposition(raw)
	if err != nil {
		return nil, err
	}
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	if err := store.SetRecordDisposition(index, d); err != nil {
		return nil, err
	}
	return recordMutation(store, index)
}

// ApplyBulk sets the same decision on every record of the review.
func (s *ReviewService) ApplyBulk(ctx context.Context, sess *models.Session, reviewID string, raw string) (*dto.WorkspaceView, error) {
	d, err := models.ParseDisposition(raw)
	if err != nil {
		return nil, err
	}
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyBulkDisposition(d); err != nil {
		return nil, err
	}
	return buildWorkspaceView(store), nil
}

// Summary counts the decisions made so far.
func (s *ReviewService) Summary(ctx context.Context, sess *models.Session, reviewID string) (*models.SelectionSummary, error) {
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	summary := store.ComputeSelectionSummary()
	return &summary, nil
}

// Preview returns the payload Submit would post.
func (s *ReviewService) Preview(ctx context.Context, sess *models.Session, reviewID string) (*models.SubmissionPayload, error) {
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	payload := BuildSubmission(store)
	return &payload, nil
}

// Submit posts the workspace to the backend. Edits are refused while the request is in flight.
// On failure the workspace is left as it was so the reviewer can retry.
func (s *ReviewService) Submit(ctx context.Context, sess *models.Session, reviewID string) (*dto.SubmitResponse, error) {
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	payload, summary, err := store.Seal()
	if err != nil {
		return nil, err
	}

	if err := s.backend.Submit(ctx, sess.UpstreamToken, payload); err != nil {
		store.Unseal()
		s.metrics.RecordSubmission(store.Category(), "failed")
		return nil, s.upstreamFailure(ctx, sess, "submit review", err)
	}

	submittedAt := s.now()
	s.workspaces.Discard(sess.ID, reviewID)
	s.metrics.RecordSubmission(store.Category(), "accepted")
	if err := s.cache.Invalidate(ctx, pendingCacheKey+"*"); err != nil {
		s.logger.Warn("pending cache not invalidated", zap.Error(err))
	}
	s.recordSubmission(ctx, sess, payload, summary, submittedAt)

	s.logger.Info("review submitted",
		zap.String("review_id", reviewID),
		zap.String("category", string(store.Category())),
		zap.Int("approved", summary.Approved),
		zap.Int("rejected", summary.Rejected),
		zap.Int("deleted", summary.Deleted),
	)
	return &dto.SubmitResponse{ReviewID: reviewID, Summary: summary, SubmittedAt: submittedAt}, nil
}

func (s *ReviewService) recordSubmission(ctx context.Context, sess *models.Session, payload models.SubmissionPayload, summary models.SelectionSummary, at time.Time) {
	if s.submissions == nil {
		return
	}
	entry, err := newSubmissionLog(sess.Username, payload, summary, at)
	if err != nil {
		s.logger.Warn("submission log entry not built", zap.String("review_id", payload.ReviewID), zap.Error(err))
		return
	}
	if err := s.submissions.Record(ctx, entry); err != nil {
		s.logger.Warn("submission log entry not recorded", zap.String("review_id", payload.ReviewID), zap.Error(err))
	}
}

// Discard drops the session's workspace for the review. Unsaved edits are lost.
func (s *ReviewService) Discard(ctx context.Context, sess *models.Session, reviewID string) error {
	if s.workspaces.Discard(sess.ID, reviewID) {
		s.logger.Info("review workspace discarded", zap.String("review_id", reviewID))
	}
	return nil
}

// Export renders the workspace's field diffs as csv or pdf.
func (s *ReviewService) Export(ctx context.Context, sess *models.Session, reviewID string, format string) (*ExportFile, error) {
	f, err := ParseExportFormat(format)
	if err != nil {
		return nil, err
	}
	store, err := s.workspace(sess, reviewID)
	if err != nil {
		return nil, err
	}
	return s.exporter.Render(store, f)
}

// QuickStats returns the landing page counters.
func (s *ReviewService) QuickStats(ctx context.Context, sess *models.Session) (*models.QuickStats, error) {
	items, _, err := s.pending(ctx, sess)
	if err != nil {
		return nil, err
	}
	stats := &models.QuickStats{
		Pending:    len(items),
		InProgress: s.workspaces.CountSession(sess.ID),
	}
	if s.submissions != nil {
		now := s.now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := s.submissions.CountSince(ctx, midnight)
		if err != nil {
			s.logger.Warn("completed today unavailable", zap.Error(err))
		} else {
			stats.CompletedToday = count
		}
	}
	return stats, nil
}

func (s *ReviewService) workspace(sess *models.Session, reviewID string) (*ReviewStateStore, error) {
	store, ok := s.workspaces.Get(sess.ID, reviewID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrWorkspaceNotOpen, fmt.Sprintf("review %s is not open", reviewID))
	}
	return store, nil
}

// upstreamFailure drops the session when the backend no longer accepts its token.
func (s *ReviewService) upstreamFailure(ctx context.Context, sess *models.Session, op string, err error) error {
	if !errors.Is(err, appErrors.ErrSessionExpired) {
		s.logger.Warn("review backend call failed", zap.String("operation", op), zap.Error(err))
		return err
	}
	s.workspaces.DiscardSession(sess.ID)
	if s.sessions != nil {
		if invErr := s.sessions.Invalidate(ctx, sess.ID); invErr != nil {
			s.logger.Warn("session not invalidated", zap.String("session_id", sess.ID), zap.Error(invErr))
		}
	}
	s.logger.Info("session invalidated after backend rejection", zap.String("session_id", sess.ID), zap.String("operation", op))
	return err
}

func recordMutation(store *ReviewStateStore, index int) (*dto.RecordMutationResponse, error) {
	rec, err := store.Record(index)
	if err != nil {
		return nil, err
	}
	return &dto.RecordMutationResponse{
		Record:  buildRecordView(index, rec),
		Summary: store.ComputeSelectionSummary(),
	}, nil
}

func buildWorkspaceView(store *ReviewStateStore) *dto.WorkspaceView {
	records := store.Records()
	view := &dto.WorkspaceView{
		ReviewID:  store.ReviewID(),
		Category:  store.Category(),
		Ticker:    store.Ticker(),
		Reasoning: store.Reasoning(),
		Stats:     store.Stats(),
		Summary:   store.ComputeSelectionSummary(),
		Records:   make([]dto.RecordView, len(records)),
	}
	for i, rec := range records {
		view.Records[i] = buildRecordView(i, rec)
	}
	return view
}

func buildRecordView(index int, rec *models.RecordState) dto.RecordView {
	schema := rec.Schema()
	diffs := rec.Fields()
	view := dto.RecordView{
		Index:       index,
		Key:         rec.Key,
		EntityID:    rec.EntityID,
		Title:       rec.Title(),
		Status:      rec.Status,
		Disposition: rec.Disposition(),
		IsDeleted:   rec.IsDeleted(),
		Fields:      make([]dto.FieldView, len(diffs)),
	}
	for i, spec := range schema.Fields {
		diff := diffs[i]
		view.Fields[i] = dto.FieldView{
			Name:       spec.Name,
			Key:        spec.Key,
			Label:      spec.Label,
			Kind:       spec.Kind,
			Current:    diff.Current,
			Previous:   diff.Previous,
			Changed:    diff.Changed(rec.Status),
			Recognized: spec.Recognized(diff.Current),
			Editable:   !rec.IsDeleted(),
		}
	}
	return view
}
