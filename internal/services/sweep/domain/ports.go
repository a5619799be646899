package domain

import "context"

// ServicePort is consumed by handlers and the sweep daemon
type ServicePort interface {
	Run(ctx context.Context, in RunInput) (RunOutput, error)
}
