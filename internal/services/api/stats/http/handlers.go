// Package http provides http transport for stats
package http

import (
	stdhttp "net/http"

	"kilter/internal/modkit/httpkit"
	svc "kilter/internal/services/api/stats/service"
)

// Register mounts stats endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// installation-wide tally and ratio
	httpkit.Get(r, "/", h.overview)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /stats Stats statsOverview
// @Summary Submission counts, score sum, and ratio
// @Tags Stats
// @Produce json
// @Success 200 {object} domain.Overview "ok"
// @Router /stats [get]
func (h *handlers) overview(r *stdhttp.Request) (any, error) {
	return h.svc.Overview(r.Context())
}
