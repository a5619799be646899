package module

import (
	"context"

	"kilter/internal/services/sweep/domain"
	sweepsvc "kilter/internal/services/sweep/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptSweepPort struct{ svc sweepsvc.Service }

// Run drains one batch of unanalyzed submissions
func (a adaptSweepPort) Run(ctx context.Context, in domain.RunInput) (domain.RunOutput, error) {
	return a.svc.Run(ctx, in)
}
