package models

import (
	"encoding/json"
	"time"
)

// PendingReview is one entry of the backend's pending queue.
type PendingReview struct {
	ReviewID    string    `json:"reviewId"`
	Category    Category  `json:"category"`
	Ticker      string    `json:"ticker"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ReviewStats aggregates record statuses of a job.
type ReviewStats struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// ReviewJob is a review as served by the backend. Records stay raw until hydrated against the category schema.
type ReviewJob struct {
	ID        string            `json:"id"`
	Ticker    string            `json:"ticker"`
	Category  Category          `json:"category"`
	Reasoning string            `json:"reasoning"`
	Records   []json.RawMessage `json:"records"`
	Stats     ReviewStats       `json:"stats"`
}

// SelectionSummary counts explicit dispositions across a review.
type SelectionSummary struct {
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Deleted  int `json:"deleted"`
	// Selected is approved + rejected + deleted.
	Selected            int  `json:"selected"`
	Total               int  `json:"total"`
	BulkDeleteAvailable bool `json:"bulkDeleteAvailable"`
}

// SubmissionPayload is the body posted to the backend's POST /reviews.
type SubmissionPayload struct {
	ReviewID string            `json:"reviewId"`
	Category Category          `json:"category"`
	Ticker   string            `json:"ticker"`
	Records  []SubmittedRecord `json:"records"`
}

// QuickStats feeds the landing page counters.
type QuickStats struct {
	Pending        int `json:"pending"`
	CompletedToday int `json:"completedToday"`
	InProgress     int `json:"inProgress"`
}
