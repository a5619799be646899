package module

import (
	"context"

	"kilter/internal/services/submissions/domain"
	subsvc "kilter/internal/services/submissions/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptSubmissionsPort struct{ svc subsvc.Service }

// Submit scores and stores one visitor keyword
func (a adaptSubmissionsPort) Submit(ctx context.Context, in domain.SubmitInput) (domain.SubmitOutput, error) {
	return a.svc.Submit(ctx, in)
}

// Recent lists the latest submissions
func (a adaptSubmissionsPort) Recent(ctx context.Context, limit int) ([]domain.Submission, error) {
	return a.svc.Recent(ctx, limit)
}
