// Package http provides http transport for submissions
package http

import (
	stdhttp "net/http"
	"strconv"

	"kilter/internal/modkit/httpkit"
	perr "kilter/internal/platform/errors"
	"kilter/internal/services/submissions/domain"
	svc "kilter/internal/services/submissions/service"
)

// Register mounts submission endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// visitor keyword intake
	httpkit.PostJSON[domain.SubmitInput](r, "/", h.submit)

	// latest submissions for the debug panel
	httpkit.Get(r, "/recent", h.recent)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /submissions Submissions submissionsSubmit
// @Summary Submit a keyword for scoring
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body domain.SubmitInput true "Keyword"
// @Success 200 {object} domain.SubmitOutput "ok"
// @Failure 400 {object} httpkit.Envelope "empty or overlong word"
// @Router /submissions [post]
func (h *handlers) submit(r *stdhttp.Request, in domain.SubmitInput) (any, error) {
	return h.svc.Submit(r.Context(), in)
}

// swagger:route GET /submissions/recent Submissions submissionsRecent
// @Summary Latest submissions, newest first
// @Tags Submissions
// @Produce json
// @Param limit query int false "max rows, default 10, cap 100"
// @Success 200 {array} domain.Submission "ok"
// @Router /submissions/recent [get]
func (h *handlers) recent(r *stdhttp.Request) (any, error) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, perr.Validationf("limit must be an integer")
		}
		limit = n
	}
	return h.svc.Recent(r.Context(), limit)
}
