package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error)
	Recent(ctx context.Context, limit int) ([]Submission, error)
}
