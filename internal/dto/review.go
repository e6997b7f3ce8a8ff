package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/entity-review-api/internal/models"
)

// PendingListResponse is the filtered pending queue with per-category counts.
type PendingListResponse struct {
	Items  []models.PendingReview  `json:"items"`
	Counts map[models.Category]int `json:"counts"`
	Total  int                     `json:"total"`
}

// WorkspaceView renders an open review for the reviewer.
type WorkspaceView struct {
	ReviewID  string                  `json:"reviewId"`
	Category  models.Category         `json:"category"`
	Ticker    string                  `json:"ticker"`
	Reasoning string                  `json:"reasoning"`
	Stats     models.ReviewStats      `json:"stats"`
	Summary   models.SelectionSummary `json:"summary"`
	Records   []RecordView            `json:"records"`
}

// RecordView is one record with its display flags.
type RecordView struct {
	Index       int                 `json:"index"`
	Key         string              `json:"id"`
	EntityID    *string             `json:"entityId"`
	Title       string              `json:"title"`
	Status      models.RecordStatus `json:"status"`
	Disposition models.Disposition  `json:"disposition"`
	IsDeleted   bool                `json:"isDeleted"`
	Fields      []FieldView         `json:"fields"`
}

// FieldView is a field diff annotated for the form.
type FieldView struct {
	Name       string           `json:"name"`
	Key        string           `json:"key"`
	Label      string           `json:"label"`
	Kind       models.FieldKind `json:"kind"`
	Current    models.Value     `json:"current"`
	Previous   models.Value     `json:"previous"`
	Changed    bool             `json:"changed"`
	Recognized bool             `json:"recognized"`
	Editable   bool             `json:"editable"`
}

// EditFieldRequest carries the new current value; an explicit null clears the field.
type EditFieldRequest struct {
	Value json.RawMessage `json:"value" swaggertype:"string"`
}

// FieldValue decodes the value. A request without the value key is rejected.
func (r EditFieldRequest) FieldValue() (models.Value, error) {
	if len(r.Value) == 0 {
		return models.Value{}, fmt.Errorf("value is required")
	}
	var v models.Value
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return models.Value{}, err
	}
	return v, nil
}

// DispositionRequest carries approve, reject, delete or none/null.
type DispositionRequest struct {
	Disposition *string `json:"disposition"`
}

// RecordMutationResponse returns the touched record and the refreshed summary.
type RecordMutationResponse struct {
	Record  RecordView              `json:"record"`
	Summary models.SelectionSummary `json:"summary"`
}

// SubmitResponse confirms an accepted submission.
type SubmitResponse struct {
	ReviewID    string                  `json:"reviewId"`
	Summary     models.SelectionSummary `json:"summary"`
	SubmittedAt time.Time               `json:"submittedAt"`
}

// SchemaResponse describes the form of a category.
type SchemaResponse struct {
	Category models.Category    `json:"category"`
	IDKey    string             `json:"idKey"`
	TitleKey string             `json:"titleKey"`
	RefKeys  []string           `json:"refKeys"`
	Fields   []models.FieldSpec `json:"fields"`
}

// SubmissionListResponse lists submission log entries.
type SubmissionListResponse struct {
	Items  []models.SubmissionLog `json:"items"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}
