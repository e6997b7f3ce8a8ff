package models

import "time"

// SubmissionLog is the audit row written after the backend accepted a submission.
type SubmissionLog struct {
	ID          string    `db:"id" json:"id"`
	ReviewID    string    `db:"review_id" json:"reviewId"`
	Category    Category  `db:"category" json:"category"`
	Ticker      string    `db:"ticker" json:"ticker"`
	Reviewer    string    `db:"reviewer" json:"reviewer"`
	RecordCount int       `db:"record_count" json:"recordCount"`
	Approved    int       `db:"approved" json:"approved"`
	Rejected    int       `db:"rejected" json:"rejected"`
	Deleted     int       `db:"deleted" json:"deleted"`
	Payload     []byte    `db:"payload" json:"-"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}

// SubmissionFilter constrains submission log listings.
type SubmissionFilter struct {
	Category Category
	Reviewer string
	Ticker   string
	Limit    int
	Offset   int
}
