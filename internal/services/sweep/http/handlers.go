// Package http provides http transport for sweeps
package http

import (
	stdhttp "net/http"

	"kilter/internal/modkit/httpkit"
	"kilter/internal/services/sweep/domain"
	svc "kilter/internal/services/sweep/service"
)

// Register mounts sweep endpoints on the given router
// the module mounts this group behind the admin bearer middleware, and the
// handlers re-check the admin flag so an unguarded mount fails closed
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// manual backlog drain
	httpkit.PostJSON[domain.RunInput](r, "/run", h.run)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /sweep/run Sweep sweepRun
// @Summary Drain one batch of unanalyzed submissions
// @Tags Sweep
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.RunInput true "Batch size"
// @Success 200 {object} domain.RunOutput "ok"
// @Failure 401 {object} httpkit.Envelope "missing or mismatched token"
// @Router /sweep/run [post]
func (h *handlers) run(r *stdhttp.Request, in domain.RunInput) (any, error) {
	if err := httpkit.Admin(r); err != nil {
		return nil, err
	}
	return h.svc.Run(r.Context(), in)
}
