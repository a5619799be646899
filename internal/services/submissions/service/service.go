// Package service contains the submission intake workflows
package service

import (
	"context"
	"time"
	"unicode/utf8"

	"kilter/internal/adapters/classify"
	"kilter/internal/core/normalize"
	"kilter/internal/modkit/repokit"
	perr "kilter/internal/platform/errors"
	"kilter/internal/platform/limiter"
	"kilter/internal/platform/logger"
	"kilter/internal/platform/retry"
	"kilter/internal/services/submissions/domain"
	"kilter/internal/services/submissions/repo"
)

// intake defaults, overridable via Config
const (
	defaultMaxWordLen  = 60
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// Config tunes intake behavior
type Config struct {
	// MaxWordLen bounds accepted input in runes, <=0 means the default
	MaxWordLen int
}

// Service defines the submissions service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the submissions service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	classifier classify.Classifier
	limiter    *limiter.Limiter
	retry      retry.Policy

	maxWordLen int
}

// New constructs a submissions service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[repo.Repo],
	classifier classify.Classifier,
	lim *limiter.Limiter,
	pol retry.Policy,
	cfg Config,
) *Svc {
	if db == nil {
		panic("submissions.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("submissions.Service requires a non nil Repo binder")
	}
	if classifier == nil {
		panic("submissions.Service requires a non nil Classifier")
	}
	if lim == nil {
		lim = limiter.New(1)
	}
	maxLen := cfg.MaxWordLen
	if maxLen <= 0 {
		maxLen = defaultMaxWordLen
	}
	return &Svc{
		Repo:       binder.Bind(db),
		binder:     binder,
		db:         db,
		classifier: classifier,
		limiter:    lim,
		retry:      pol,
		maxWordLen: maxLen,
	}
}

// Submit validates, normalizes, scores, and persists one keyword
//
// The cache is consulted first; a miss calls the classifier under the
// shared concurrency limit with backoff on rate limits. Classifier failure
// degrades to the neutral default so intake never blocks on the upstream,
// and degraded scores are deliberately not memoized
func (s *Svc) Submit(ctx context.Context, in domain.SubmitInput) (domain.SubmitOutput, error) {
	word := normalize.Normalize(in.Word)
	if word.Raw == "" {
		return domain.SubmitOutput{}, perr.Validationf("word must not be empty")
	}
	if utf8.RuneCountInString(word.Raw) > s.maxWordLen {
		return domain.SubmitOutput{}, perr.Validationf("word exceeds %d characters", s.maxWordLen)
	}
	if word.Canon == "" {
		// normalization can eat format-only input entirely
		return domain.SubmitOutput{}, perr.Validationf("word must not be empty")
	}

	score, cached, err := s.Repo.CachedScore(ctx, word.Canon)
	if err != nil {
		return domain.SubmitOutput{}, err
	}

	outcome := classify.Ok(classify.Result{Score: score})
	if !cached {
		outcome = s.classifyOne(ctx, word.Canon)
	}

	var row repo.SubmissionRow
	err = repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var txErr error
		row, txErr = r.InsertAnalyzed(ctx, word.Raw, word.Canon, outcome.Result.Score)
		if txErr != nil {
			return txErr
		}
		if !cached && !outcome.Degraded {
			return r.MemoScore(ctx, word.Canon, outcome.Result.Score)
		}
		return nil
	})
	if err != nil {
		return domain.SubmitOutput{}, err
	}

	out := domain.SubmitOutput{
		SubmissionID: row.ID,
		WordNorm:     word.Canon,
		Score:        outcome.Result.Score,
		Cached:       cached,
		CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		Degraded:     outcome.Degraded,
	}
	return out, nil
}

// classifyOne calls the classifier holding a permit for the whole retry loop
// so retries of one submission cannot starve fresh ones of their slot budget
func (s *Svc) classifyOne(ctx context.Context, canon string) classify.Outcome {
	var res classify.Result
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			var cerr error
			res, cerr = s.classifier.ClassifyOne(ctx, canon)
			return cerr
		})
	})
	if err != nil {
		logger.C(ctx).Warn().
			Err(err).
			Str("word_norm", canon).
			Msg("classifier unavailable, recording neutral fallback")
		return classify.Degrade(err.Error())
	}
	return classify.Ok(classify.Sanitize(res))
}

// Recent lists the latest submissions, newest first
// limit <= 0 falls back to the default and is clamped to the maximum
func (s *Svc) Recent(ctx context.Context, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	rows, err := s.Repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Submission, 0, len(rows))
	for _, r := range rows {
		sub := domain.Submission{
			ID:        r.ID,
			WordRaw:   r.WordRaw,
			WordNorm:  r.WordNorm,
			Score:     r.Score,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if r.AnalyzedAt != nil {
			at := r.AnalyzedAt.UTC().Format(time.RFC3339)
			sub.AnalyzedAt = &at
		}
		out = append(out, sub)
	}
	return out, nil
}
