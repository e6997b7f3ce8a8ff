package service

import (
	"fmt"
	"sync"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

// ReviewStateStore holds the records of one review job while a reviewer works on it.
// The record sequence is fixed at hydration; only record contents change afterwards.
// A sealed store refuses mutations; it is sealed while a submission is in flight and after it was accepted.
type ReviewStateStore struct {
	mu sync.RWMutex

	reviewID  string
	category  models.Category
	ticker    string
	reasoning string
	schema    *models.Schema
	records   []*models.RecordState
	stats     models.ReviewStats
	sealed    bool
}

// HydrateStore builds a store from a backend job. Every record starts undecided and not deleted.
func HydrateStore(job *models.ReviewJob) (*ReviewStateStore, error) {
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review job is required")
	}
	schema, err := models.SchemaFor(job.Category)
	if err != nil {
		return nil, err
	}
	store := &ReviewStateStore{
		reviewID:  job.ID,
		category:  job.Category,
		ticker:    job.Ticker,
		reasoning: job.Reasoning,
		schema:    schema,
		records:   make([]*models.RecordState, 0, len(job.Records)),
	}
	for i, raw := range job.Records {
		rec, err := models.DecodeRecord(schema, raw)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
				fmt.Sprintf("review %s record %d is malformed", job.ID, i))
		}
		store.records = append(store.records, rec)
		switch rec.Status {
		case models.RecordStatusNew:
			store.stats.New++
		case models.RecordStatusUpdated:
			store.stats.Updated++
		}
	}
	store.stats.Total = len(store.records)
	return store, nil
}

// ReviewID returns the backend id of the review job.
func (s *ReviewStateStore) ReviewID() string { return s.reviewID }

// Category returns the entity kind of every record.
func (s *ReviewStateStore) Category() models.Category { return s.category }

// Ticker returns the company ticker the job was extracted for.
func (s *ReviewStateStore) Ticker() string { return s.ticker }

// Reasoning returns the extraction pipeline's explanation.
func (s *ReviewStateStore) Reasoning() string { return s.reasoning }

// Schema returns the field layout of the category.
func (s *ReviewStateStore) Schema() *models.Schema { return s.schema }

// Stats returns the status counts computed at hydration.
func (s *ReviewStateStore) Stats() models.ReviewStats { return s.stats }

// Len returns the number of records.
func (s *ReviewStateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns deep copies of the records in server order.
func (s *ReviewStateStore) Records() []*models.RecordState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.RecordState, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Record returns a copy of the record at index.
func (s *ReviewStateStore) Record(index int) (*models.RecordState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.at(index)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// EditField sets the current value of a field on the record at index.
func (s *ReviewStateStore) EditField(index int, field string, value models.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	rec, err := s.at(index)
	if err != nil {
		return err
	}
	return rec.EditField(field, value)
}

// SetRecordDisposition sets the decision of the record at index.
func (s *ReviewStateStore) SetRecordDisposition(index int, d models.Disposition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	rec, err := s.at(index)
	if err != nil {
		return err
	}
	return rec.SetDisposition(d)
}

// ApplyBulkDisposition sets every record to d, or none of them when d is invalid.
func (s *ReviewStateStore) ApplyBulkDisposition(d models.Disposition) error {
	if !d.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidDisposition, fmt.Sprintf("invalid disposition %q", string(d)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	for _, rec := range s.records {
		if err := rec.SetDisposition(d); err != nil {
			return err
		}
	}
	return nil
}

// ComputeSelectionSummary counts dispositions over all records.
func (s *ReviewStateStore) ComputeSelectionSummary() models.SelectionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked()
}

// Snapshot returns the submission payload and the summary of the same record state.
func (s *ReviewStateStore) Snapshot() (models.SubmissionPayload, models.SelectionSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payloadLocked(), s.summaryLocked()
}

// Seal freezes the records for a submission and returns what will be posted.
// Mutations fail with ErrSubmitInProgress until Unseal.
func (s *ReviewStateStore) Seal() (models.SubmissionPayload, models.SelectionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return models.SubmissionPayload{}, models.SelectionSummary{}, err
	}
	s.sealed = true
	return s.payloadLocked(), s.summaryLocked(), nil
}

// Unseal reopens the records after a failed submission.
func (s *ReviewStateStore) Unseal() {
	s.mu.Lock()
	s.sealed = false
	s.mu.Unlock()
}

func (s *ReviewStateStore) checkOpen() error {
	if s.sealed {
		return appErrors.Clone(appErrors.ErrSubmitInProgress, fmt.Sprintf("review %s is being submitted", s.reviewID))
	}
	return nil
}

func (s *ReviewStateStore) payloadLocked() models.SubmissionPayload {
	payload := models.SubmissionPayload{
		ReviewID: s.reviewID,
		Category: s.category,
		Ticker:   s.ticker,
		Records:  make([]models.SubmittedRecord, len(s.records)),
	}
	for i, rec := range s.records {
		payload.Records[i] = models.SubmittedRecord{RecordState: rec.Clone()}
	}
	return payload
}

func (s *ReviewStateStore) summaryLocked() models.SelectionSummary {
	summary := models.SelectionSummary{Total: len(s.records)}
	for _, rec := range s.records {
		switch {
		case rec.Disposition() == models.DispositionDelete || rec.IsDeleted():
			summary.Deleted++
		case rec.Disposition() == models.DispositionApprove:
			summary.Approved++
		case rec.Disposition() == models.DispositionReject:
			summary.Rejected++
		}
	}
	summary.Selected = summary.Approved + summary.Rejected + summary.Deleted
	summary.BulkDeleteAvailable = summary.Deleted < summary.Total
	return summary
}

func (s *ReviewStateStore) at(index int) (*models.RecordState, error) {
	if index < 0 || index >= len(s.records) {
		return nil, appErrors.Clone(appErrors.ErrIndexOutOfRange,
			fmt.Sprintf("record index %d out of range [0,%d)", index, len(s.records)))
	}
	return s.records[index], nil
}
