// Package domain holds DTOs for submissions http and service contracts
package domain

// SubmitInput is a visitor keyword submission
type SubmitInput struct {
	Word string `json:"word" validate:"required" example:"entropy"`
}

// SubmitOutput is the terminal state of a submission
// Degraded is surfaced to callers in process but not on the wire
type SubmitOutput struct {
	SubmissionID int64   `json:"submission_id" example:"42"`
	WordNorm     string  `json:"word_norm" example:"entropy"`
	Score        float64 `json:"score" example:"-0.4"`
	Cached       bool    `json:"cached" example:"false"`
	CreatedAt    string  `json:"created_at" example:"2026-08-27T13:00:00Z"`

	Degraded bool `json:"-"`
}

// Submission is a stored row, scores are nil until analyzed
type Submission struct {
	ID         int64    `json:"id" example:"42"`
	WordRaw    string   `json:"word_raw" example:"Entropy"`
	WordNorm   string   `json:"word_norm" example:"entropy"`
	Score      *float64 `json:"score" example:"-0.4"`
	AnalyzedAt *string  `json:"analyzed_at,omitempty" example:"2026-08-27T13:00:05Z"`
	CreatedAt  string   `json:"created_at" example:"2026-08-27T13:00:00Z"`
}
