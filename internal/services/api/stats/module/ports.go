package module

import (
	"context"

	"kilter/internal/services/api/stats/domain"
	statssvc "kilter/internal/services/api/stats/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptStatsPort struct{ svc statssvc.Service }

// Overview returns the installation-wide submission tally
func (a adaptStatsPort) Overview(ctx context.Context) (domain.Overview, error) {
	return a.svc.Overview(ctx)
}
