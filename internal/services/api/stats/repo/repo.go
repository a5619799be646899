// Package repo provides postgres access for stats
package repo

import (
	"context"
	"time"

	"kilter/internal/modkit/repokit"
	perr "kilter/internal/platform/errors"
)

// OverviewRow is the single aggregate row behind the stats endpoint
type OverviewRow struct {
	Total      int64
	Analyzed   int64
	Unanalyzed int64
	ScoreSum   float64
	LastAt     *time.Time
}

// Repo is the persistence surface for stats
type Repo interface {
	Overview(ctx context.Context) (OverviewRow, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Overview(ctx context.Context) (OverviewRow, error) {
	const sql = `
select
  count(*)                                                          as total,
  count(*) filter (where analyzed_at is not null)                   as analyzed,
  count(*) filter (where analyzed_at is null)                       as unanalyzed,
  coalesce(sum(real_score) filter (where analyzed_at is not null), 0) as score_sum,
  max(created_at)                                                   as last_at
from submissions
`
	var row OverviewRow
	err := r.q.QueryRow(ctx, sql).Scan(&row.Total, &row.Analyzed, &row.Unanalyzed, &row.ScoreSum, &row.LastAt)
	if err != nil {
		return OverviewRow{}, perr.FromPostgres(err, "stats overview failed")
	}
	return row, nil
}
