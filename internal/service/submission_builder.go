package service

import "github.com/noah-isme/entity-review-api/internal/models"

// BuildSubmission projects the store into the payload posted to the backend.
// Every record not marked for deletion is persisted; approve/reject are carried as `_action` only.
func BuildSubmission(store *ReviewStateStore) models.SubmissionPayload {
	payload, _ := store.Snapshot()
	return payload
}
