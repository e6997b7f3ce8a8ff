package models

import "time"

// SystemMetrics is an in-process snapshot of the instrumentation counters.
type SystemMetrics struct {
	CacheHitRatio             float64   `json:"cache_hit_ratio"`
	CacheHits                 uint64    `json:"cache_hits"`
	CacheMisses               uint64    `json:"cache_misses"`
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	UpstreamRequests          uint64    `json:"upstream_requests"`
	UpstreamFailures          uint64    `json:"upstream_failures"`
	AverageUpstreamDurationMs float64   `json:"average_upstream_duration_ms"`
	DBQueryCount              uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs  float64   `json:"average_db_query_duration_ms"`
	SubmissionsAccepted       uint64    `json:"submissions_accepted"`
	SubmissionsFailed         uint64    `json:"submissions_failed"`
	OpenWorkspaces            int       `json:"open_workspaces"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}
