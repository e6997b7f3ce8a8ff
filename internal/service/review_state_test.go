package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

func assetJob(statuses ...string) *models.ReviewJob {
	job := &models.ReviewJob{
		ID:        "rev-1",
		Ticker:    "ACME",
		Category:  models.CategoryAsset,
		Reasoning: "quarterly refresh",
	}
	for i, status := range statuses {
		raw := fmt.Sprintf(`{
			"_id": "r%d",
			"status": %q,
			"asset_id": "A-%d",
			"asset_primary_name": {"current": "A", "previous": null},
			"asset_is_oncology": {"current": false, "previous": false}
		}`, i, status, i)
		job.Records = append(job.Records, json.RawMessage(raw))
	}
	return job
}

func hydrate(t *testing.T, statuses ...string) *ReviewStateStore {
	t.Helper()
	store, err := HydrateStore(assetJob(statuses...))
	require.NoError(t, err)
	return store
}

func TestHydrateStoreComputesStats(t *testing.T) {
	store := hydrate(t, "new", "updated", "unchanged")

	assert.Equal(t, models.ReviewStats{New: 1, Updated: 1, Total: 3}, store.Stats())
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, "rev-1", store.ReviewID())
	assert.Equal(t, models.CategoryAsset, store.Category())
	assert.Equal(t, "ACME", store.Ticker())
	assert.Equal(t, "quarterly refresh", store.Reasoning())

	for _, rec := range store.Records() {
		assert.Equal(t, models.DispositionNone, rec.Disposition())
		assert.False(t, rec.IsDeleted())
	}
}

func TestHydrateStoreEmptyJob(t *testing.T) {
	store := hydrate(t)
	assert.Equal(t, models.ReviewStats{}, store.Stats())
	summary := store.ComputeSelectionSummary()
	assert.Equal(t, 0, summary.Total)
	assert.False(t, summary.BulkDeleteAvailable)
}

func TestHydrateStoreRejectsBadInput(t *testing.T) {
	_, err := HydrateStore(nil)
	require.Error(t, err)

	job := assetJob("new")
	job.Category = "trial"
	_, err = HydrateStore(job)
	require.True(t, errors.Is(err, appErrors.ErrUnknownCategory))

	job = assetJob("new")
	job.Records = append(job.Records, json.RawMessage(`{"_id": 3}`))
	_, err = HydrateStore(job)
	require.True(t, errors.Is(err, appErrors.ErrUpstream))
}

func TestEditFieldUpdatesCurrentOnly(t *testing.T) {
	store := hydrate(t, "new")

	require.NoError(t, store.EditField(0, "primary_name", models.String("B")))

	rec, err := store.Record(0)
	require.NoError(t, err)
	diff, ok := rec.Field("primary_name")
	require.True(t, ok)
	assert.Equal(t, models.String("B"), diff.Current)
	assert.True(t, diff.Previous.IsNull())
}

func TestRecordReturnsCopy(t *testing.T) {
	store := hydrate(t, "new")
	rec, err := store.Record(0)
	require.NoError(t, err)
	require.NoError(t, rec.EditField("primary_name", models.String("mutated")))

	again, err := store.Record(0)
	require.NoError(t, err)
	diff, _ := again.Field("primary_name")
	assert.Equal(t, models.String("A"), diff.Current)
}

func TestIndexOutOfRange(t *testing.T) {
	store := hydrate(t, "new", "new")
	for _, idx := range []int{-1, 2, 10} {
		err := store.EditField(idx, "primary_name", models.String("x"))
		assert.True(t, errors.Is(err, appErrors.ErrIndexOutOfRange), "index %d", idx)
		err = store.SetRecordDisposition(idx, models.DispositionApprove)
		assert.True(t, errors.Is(err, appErrors.ErrIndexOutOfRange), "index %d", idx)
		_, err = store.Record(idx)
		assert.True(t, errors.Is(err, appErrors.ErrIndexOutOfRange), "index %d", idx)
	}
}

func TestSetRecordDispositionDelete(t *testing.T) {
	store := hydrate(t, "new", "updated")

	require.NoError(t, store.SetRecordDisposition(1, models.DispositionDelete))

	summary := store.ComputeSelectionSummary()
	assert.Equal(t, 1, summary.Deleted)
	assert.True(t, summary.BulkDeleteAvailable)

	payload := BuildSubmission(store)
	require.Len(t, payload.Records, 2)
	assert.False(t, payload.Records[0].MarkedForDeletion())
	assert.True(t, payload.Records[1].MarkedForDeletion())
}

func TestApplyBulkDelete(t *testing.T) {
	store := hydrate(t, "new", "new", "updated", "unchanged", "new")

	require.NoError(t, store.ApplyBulkDisposition(models.DispositionDelete))

	summary := store.ComputeSelectionSummary()
	assert.Equal(t, 0, summary.Approved)
	assert.Equal(t, 0, summary.Rejected)
	assert.Equal(t, 5, summary.Deleted)
	assert.Equal(t, 5, summary.Selected)
	assert.False(t, summary.BulkDeleteAvailable)
	for _, rec := range store.Records() {
		assert.True(t, rec.IsDeleted())
	}
}

func TestApplyBulkApproveClearsDeletion(t *testing.T) {
	store := hydrate(t, "new", "new")
	require.NoError(t, store.SetRecordDisposition(0, models.DispositionDelete))

	require.NoError(t, store.ApplyBulkDisposition(models.DispositionApprove))

	for _, rec := range store.Records() {
		assert.Equal(t, models.DispositionApprove, rec.Disposition())
		assert.False(t, rec.IsDeleted())
	}
}

func TestApplyBulkInvalidChangesNothing(t *testing.T) {
	store := hydrate(t, "new", "new")
	require.NoError(t, store.SetRecordDisposition(0, models.DispositionReject))
	before := store.Records()

	err := store.ApplyBulkDisposition(models.Disposition("archive"))
	require.True(t, errors.Is(err, appErrors.ErrInvalidDisposition))
	assert.Equal(t, before, store.Records())
}

func TestEditOnDeletedRecordLeavesStateUnchanged(t *testing.T) {
	store := hydrate(t, "new")
	require.NoError(t, store.SetRecordDisposition(0, models.DispositionDelete))
	before := store.Records()

	err := store.EditField(0, "primary_name", models.String("B"))
	require.True(t, errors.Is(err, appErrors.ErrRecordDeleted))
	assert.Equal(t, before, store.Records())
}

func TestSelectionSummaryCountsAndIsIdempotent(t *testing.T) {
	store := hydrate(t, "new", "new", "new", "new")
	require.NoError(t, store.SetRecordDisposition(0, models.DispositionApprove))
	require.NoError(t, store.SetRecordDisposition(1, models.DispositionReject))
	require.NoError(t, store.SetRecordDisposition(2, models.DispositionDelete))

	first := store.ComputeSelectionSummary()
	second := store.ComputeSelectionSummary()
	assert.Equal(t, first, second)
	assert.Equal(t, models.SelectionSummary{
		Approved:            1,
		Rejected:            1,
		Deleted:             1,
		Selected:            3,
		Total:               4,
		BulkDeleteAvailable: true,
	}, first)
	assert.Equal(t, first.Approved+first.Rejected+first.Deleted, first.Selected)
}

func TestSealFreezesRecordsUntilUnseal(t *testing.T) {
	store := hydrate(t, "new", "updated")
	require.NoError(t, store.SetRecordDisposition(0, models.DispositionApprove))

	payload, summary, err := store.Seal()
	require.NoError(t, err)
	require.Len(t, payload.Records, 2)
	assert.Equal(t, 1, summary.Approved)
	assert.Equal(t, models.DispositionApprove, payload.Records[0].Disposition())

	for _, err := range []error{
		store.EditField(1, "primary_name", models.String("x")),
		store.SetRecordDisposition(1, models.DispositionReject),
		store.ApplyBulkDisposition(models.DispositionDelete),
	} {
		assert.True(t, errors.Is(err, appErrors.ErrSubmitInProgress))
	}
	_, _, err = store.Seal()
	assert.True(t, errors.Is(err, appErrors.ErrSubmitInProgress))

	store.Unseal()
	require.NoError(t, store.SetRecordDisposition(1, models.DispositionReject))
	payload, summary = store.Snapshot()
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, models.DispositionReject, payload.Records[1].Disposition())
}
