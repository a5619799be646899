// Package repo provides postgres access for backlog sweeps
package repo

import (
	"context"

	"kilter/internal/modkit/repokit"
	perr "kilter/internal/platform/errors"
)

// ClaimedRow is one backlog submission locked by the current sweep
type ClaimedRow struct {
	ID       int64
	WordNorm string
}

// Repo is the persistence surface for sweeps
// both calls must run on the same transaction so claimed locks hold
type Repo interface {
	// ClaimBacklog locks up to limit unanalyzed submissions, oldest first,
	// skipping rows already claimed by a concurrent sweep
	ClaimBacklog(ctx context.Context, limit int) ([]ClaimedRow, error)
	// RecordAnalysis appends the analysis row and stamps the submission's score
	RecordAnalysis(ctx context.Context, submissionID int64, pos string, score, confidence float64, batchID string) error
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

func (r *queries) ClaimBacklog(ctx context.Context, limit int) ([]ClaimedRow, error) {
	const sql = `
select id, word_norm
from submissions
where analyzed_at is null
order by id asc
limit $1
for update skip locked
`
	rows, err := r.q.Query(ctx, sql, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "claim backlog failed")
	}
	defer rows.Close()
	var out []ClaimedRow
	for rows.Next() {
		var c ClaimedRow
		if err := rows.Scan(&c.ID, &c.WordNorm); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *queries) RecordAnalysis(
	ctx context.Context,
	submissionID int64,
	pos string,
	score, confidence float64,
	batchID string,
) error {
	const insertSQL = `
insert into analyses (submission_id, pos, score, confidence, batch_id)
values ($1, $2, $3, $4, $5)
`
	if _, err := r.q.Exec(ctx, insertSQL, submissionID, pos, score, confidence, batchID); err != nil {
		return perr.FromPostgres(err, "insert analysis failed")
	}

	const updateSQL = `
update submissions
set real_score = $2, analyzed_at = now()
where id = $1 and analyzed_at is null
`
	if _, err := r.q.Exec(ctx, updateSQL, submissionID, score); err != nil {
		return perr.FromPostgres(err, "stamp submission score failed")
	}
	return nil
}
