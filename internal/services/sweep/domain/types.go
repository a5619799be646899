// Package domain holds DTOs for sweep http and service contracts
package domain

// RunInput requests one backlog sweep
type RunInput struct {
	// Limit caps claimed rows, <=0 means the default
	Limit int `json:"limit" example:"30"`
}

// RunOutput reports one completed sweep
type RunOutput struct {
	BatchID   string `json:"batch_id" example:"8f14e45f-ceea-4e17-a042-0f9e5b2c3d4e"`
	Processed int    `json:"processed" example:"12"`
}
