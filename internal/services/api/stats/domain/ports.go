package domain

import "context"

// ServicePort is consumed by handlers and the installation frontend
type ServicePort interface {
	Overview(ctx context.Context) (Overview, error)
}
