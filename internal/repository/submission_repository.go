package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/entity-review-api/internal/models"
)

// QueryObserver receives query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SubmissionRepository persists the audit trail of accepted review submissions.
type SubmissionRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewSubmissionRepository constructs the repository. observer may be nil.
func NewSubmissionRepository(db *sqlx.DB, observer QueryObserver) *SubmissionRepository {
	return &SubmissionRepository{db: db, observer: observer}
}

// Insert stores one submission log entry.
func (r *SubmissionRepository) Insert(ctx context.Context, entry *models.SubmissionLog) error {
	defer r.observe("submission_insert", time.Now())
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO review_submissions
	(id, review_id, category, ticker, reviewer, record_count, approved, rejected, deleted, payload, submitted_at)
	VALUES (:id, :review_id, :category, :ticker, :reviewer, :record_count, :approved, :rejected, :deleted, :payload, :submitted_at)
	ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert review submission: %w", err)
	}
	return nil
}

// List returns entries matching filter, newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionLog, error) {
	defer r.observe("submission_list", time.Now())
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, review_id, category, ticker, reviewer, record_count, approved, rejected, deleted, submitted_at
	FROM review_submissions`)
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Reviewer != "" {
		args = append(args, filter.Reviewer)
		conditions = append(conditions, fmt.Sprintf("reviewer = $%d", len(args)))
	}
	if filter.Ticker != "" {
		args = append(args, strings.ToUpper(filter.Ticker))
		conditions = append(conditions, fmt.Sprintf("UPPER(ticker) = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var entries []models.SubmissionLog
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list review submissions: %w", err)
	}
	return entries, nil
}

// CountSince counts entries submitted at or after since.
func (r *SubmissionRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	defer r.observe("submission_count", time.Now())
	const query = `SELECT COUNT(*) FROM review_submissions WHERE submitted_at >= $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, fmt.Errorf("count review submissions: %w", err)
	}
	return count, nil
}

func (r *SubmissionRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}
