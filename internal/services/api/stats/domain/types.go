// Package domain holds DTOs for the stats surface
package domain

// Overview is the installation-wide submission tally
// Ratio is score_sum over analyzed_count, 0 when nothing is analyzed yet
type Overview struct {
	TotalCount       int64    `json:"total_count" example:"120"`
	AnalyzedCount    int64    `json:"analyzed_count" example:"110"`
	UnanalyzedCount  int64    `json:"unanalyzed_count" example:"10"`
	ScoreSum         float64  `json:"score_sum" example:"14.6"`
	Ratio            float64  `json:"ratio" example:"0.13"`
	LastSubmissionAt *string  `json:"last_submission_at,omitempty" example:"2026-08-27T13:00:00Z"`
}
