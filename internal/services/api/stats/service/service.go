// Package service contains stats workflows
package service

import (
	"context"
	"time"

	"kilter/internal/modkit/repokit"
	"kilter/internal/services/api/stats/domain"
	"kilter/internal/services/api/stats/repo"
)

// Service defines the stats service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the stats service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

// New constructs a stats service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("stats.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("stats.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db}
}

// Overview returns the installation-wide tally with the derived ratio
func (s *Svc) Overview(ctx context.Context) (domain.Overview, error) {
	row, err := s.Repo.Overview(ctx)
	if err != nil {
		return domain.Overview{}, err
	}
	out := domain.Overview{
		TotalCount:      row.Total,
		AnalyzedCount:   row.Analyzed,
		UnanalyzedCount: row.Unanalyzed,
		ScoreSum:        row.ScoreSum,
	}
	if row.Analyzed > 0 {
		out.Ratio = row.ScoreSum / float64(row.Analyzed)
	}
	if row.LastAt != nil {
		at := row.LastAt.UTC().Format(time.RFC3339)
		out.LastSubmissionAt = &at
	}
	return out, nil
}
