// Package repo provides postgres access for submissions and the keyword cache
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"kilter/internal/modkit/repokit"
	perr "kilter/internal/platform/errors"
)

// SubmissionRow is a persisted submission
type SubmissionRow struct {
	ID         int64
	WordRaw    string
	WordNorm   string
	Score      *float64
	AnalyzedAt *time.Time
	CreatedAt  time.Time
}

// Repo is the minimal persistence surface for submissions
type Repo interface {
	// CachedScore returns the memoized score for canon when present
	CachedScore(ctx context.Context, canon string) (float64, bool, error)
	// MemoScore records canon's score if absent, first writer wins
	MemoScore(ctx context.Context, canon string, score float64) error
	// InsertAnalyzed stores a submission with its terminal score in one statement
	InsertAnalyzed(ctx context.Context, raw, canon string, score float64) (SubmissionRow, error)
	// Recent returns the latest submissions, newest first
	Recent(ctx context.Context, limit int) ([]SubmissionRow, error)
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

func (r *queries) CachedScore(ctx context.Context, canon string) (float64, bool, error) {
	const sql = `
select score
from keyword_cache
where word_norm = $1
`
	var score float64
	err := r.q.QueryRow(ctx, sql, canon).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, perr.FromPostgres(err, "cached score lookup failed")
	}
	return score, true, nil
}

func (r *queries) MemoScore(ctx context.Context, canon string, score float64) error {
	const sql = `
insert into keyword_cache (word_norm, score)
values ($1, $2)
on conflict (word_norm) do nothing
`
	if _, err := r.q.Exec(ctx, sql, canon, score); err != nil {
		return perr.FromPostgres(err, "memoize keyword score failed")
	}
	return nil
}

func (r *queries) InsertAnalyzed(ctx context.Context, raw, canon string, score float64) (SubmissionRow, error) {
	const sql = `
insert into submissions (word_raw, word_norm, real_score, analyzed_at)
values ($1, $2, $3, now())
returning id, real_score, analyzed_at, created_at
`
	row := SubmissionRow{WordRaw: raw, WordNorm: canon}
	err := r.q.QueryRow(ctx, sql, raw, canon, score).Scan(&row.ID, &row.Score, &row.AnalyzedAt, &row.CreatedAt)
	if err != nil {
		return SubmissionRow{}, perr.FromPostgres(err, "insert submission failed")
	}
	return row, nil
}

func (r *queries) Recent(ctx context.Context, limit int) ([]SubmissionRow, error) {
	const sql = `
select id, word_raw, word_norm, real_score, analyzed_at, created_at
from submissions
order by id desc
limit $1
`
	rows, err := r.q.Query(ctx, sql, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "recent submissions query failed")
	}
	defer rows.Close()
	var out []SubmissionRow
	for rows.Next() {
		var rr SubmissionRow
		if err := rows.Scan(&rr.ID, &rr.WordRaw, &rr.WordNorm, &rr.Score, &rr.AnalyzedAt, &rr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
