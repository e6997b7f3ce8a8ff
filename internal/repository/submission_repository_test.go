package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/entity-review-api/internal/models"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type recordingObserver struct {
	labels []string
}

func (o *recordingObserver) ObserveDBQuery(label string, duration time.Duration) {
	o.labels = append(o.labels, label)
}

var submissionColumns = []string{"id", "review_id", "category", "ticker", "reviewer", "record_count", "approved", "rejected", "deleted", "submitted_at"}

func TestSubmissionRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	observer := &recordingObserver{}
	repo := NewSubmissionRepository(db, observer)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.SubmissionLog{
		ReviewID:    "rev-1",
		Category:    models.CategoryAsset,
		Ticker:      "ACME",
		Reviewer:    "analyst",
		RecordCount: 3,
		Approved:    1,
		Deleted:     1,
		Payload:     []byte(`{"reviewId":"rev-1"}`),
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.SubmittedAt.IsZero())
	require.Equal(t, []string{"submission_insert"}, observer.labels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryInsertError(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db, nil)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_submissions")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), &models.SubmissionLog{ReviewID: "rev-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert review submission")
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db, nil)
	rows := sqlmock.NewRows(submissionColumns).
		AddRow("sub-1", "rev-1", "asset", "ACME", "analyst", 3, 1, 1, 1, time.Now())
	mock.ExpectQuery(`(?s)SELECT id, review_id, category .* WHERE category = \$1 AND UPPER\(ticker\) = \$2 ORDER BY submitted_at DESC LIMIT 10 OFFSET 0`).
		WithArgs(models.CategoryAsset, "ACME").
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.SubmissionFilter{
		Category: models.CategoryAsset,
		Ticker:   "acme",
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "rev-1", items[0].ReviewID)
	require.Equal(t, 3, items[0].RecordCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCountSince(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db, nil)
	since := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_submissions WHERE submitted_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountSince(context.Background(), since)
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
