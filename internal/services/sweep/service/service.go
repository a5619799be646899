// Package service contains the backlog sweep workflow
package service

import (
	"context"

	"github.com/google/uuid"

	"kilter/internal/adapters/classify"
	"kilter/internal/modkit/repokit"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/logger"
	"kilter/internal/platform/retry"
	"kilter/internal/services/sweep/domain"
	"kilter/internal/services/sweep/repo"
)

// batch limit bounds
const (
	defaultLimit = 30
	maxLimit     = 200
)

// Service defines the sweep service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the sweep service
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	classifier classify.Classifier
	limiter    *limiter.Limiter
	retry      retry.Policy
}

// New constructs a sweep service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[repo.Repo],
	classifier classify.Classifier,
	lim *limiter.Limiter,
	pol retry.Policy,
) *Svc {
	if db == nil {
		panic("sweep.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("sweep.Service requires a non nil Repo binder")
	}
	if classifier == nil {
		panic("sweep.Service requires a non nil Classifier")
	}
	if lim == nil {
		lim = limiter.New(1)
	}
	return &Svc{binder: binder, db: db, classifier: classifier, limiter: lim, retry: pol}
}

// Run drains one batch of unanalyzed submissions
//
// Claim, classify, and record happen in a single transaction so row locks
// from the claim hold until the scores land; concurrent sweeps skip locked
// rows and therefore never process the same submission twice. A classifier
// failure scores the whole claimed batch neutral so the backlog still drains
func (s *Svc) Run(ctx context.Context, in domain.RunInput) (domain.RunOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	out := domain.RunOutput{BatchID: uuid.NewString()}
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		claimed, err := r.ClaimBacklog(ctx, limit)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		results := s.classifyBatch(ctx, claimed)
		for i, row := range claimed {
			res := results[i]
			if err := r.RecordAnalysis(ctx, row.ID, string(res.Pos), res.Score, res.Confidence, out.BatchID); err != nil {
				return err
			}
		}
		out.Processed = len(claimed)
		return nil
	})
	if err != nil {
		return domain.RunOutput{}, err
	}
	return out, nil
}

// classifyBatch returns exactly one sanitized result per claimed row,
// substituting the neutral default for the whole batch on upstream failure
func (s *Svc) classifyBatch(ctx context.Context, claimed []repo.ClaimedRow) []classify.Result {
	texts := make([]string, len(claimed))
	for i, c := range claimed {
		texts[i] = c.WordNorm
	}

	var results []classify.Result
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			var cerr error
			results, cerr = s.classifier.ClassifyBatch(ctx, texts)
			return cerr
		})
	})
	if err != nil || len(results) != len(claimed) {
		logger.C(ctx).Warn().
			Err(err).
			Int("claimed", len(claimed)).
			Msg("classifier unavailable, scoring batch neutral")
		results = make([]classify.Result, len(claimed))
		for i := range results {
			results[i] = classify.Neutral()
		}
		return results
	}
	for i := range results {
		results[i] = classify.Sanitize(results[i])
	}
	return results
}
